//go:build native && cgo

package gateway

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef int64_t (*ql_create_fn)(const char*, size_t);
typedef int32_t (*ql_dispatch_fn)(int64_t, int32_t, const char*, size_t);
typedef void (*ql_destroy_fn)(int64_t);
typedef void (*ql_init_logging_fn)(void);

static void* ql_dlopen(const char* path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}
static int ql_dlclose(void* h) {
	return dlclose(h);
}
static const char* ql_dlerror(void) {
	return dlerror();
}
// Clear dlerror, call dlsym, and return the error (if any) alongside the symbol.
static void* ql_dlsym(void* h, const char* name, const char** err) {
	dlerror();
	void* p = dlsym(h, name);
	const char* e = dlerror();
	*err = e;
	return e ? NULL : p;
}
static int64_t ql_call_create(void* fn, const char* cfg, size_t n) {
	return ((ql_create_fn)fn)(cfg, n);
}
static int32_t ql_call_dispatch(void* fn, int64_t h, int32_t kind, const char* p, size_t n) {
	return ((ql_dispatch_fn)fn)(h, kind, p, n);
}
static void ql_call_destroy(void* fn, int64_t h) {
	((ql_destroy_fn)fn)(h);
}
static void ql_call_init_logging(void* fn) {
	((ql_init_logging_fn)fn)();
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"querylog/pkg/types"
)

const nativeBuilt = true

type nativeLibrary struct {
	path     string
	create   unsafe.Pointer
	dispatch unsafe.Pointer
	destroy  unsafe.Pointer
	initLog  unsafe.Pointer
}

func dlerr() string {
	if e := C.ql_dlerror(); e != nil {
		return C.GoString(e)
	}
	return "unknown dlerror"
}

// openLibrary dlopens path and resolves the querylog_* symbols. The handle is
// never closed: the library stays mapped for the life of the process.
func openLibrary(path string) (library, error) {
	h, err := dlopen(path)
	if err != nil {
		return nil, err
	}
	return resolve(h, path)
}

// probeLibrary opens path, resolves the required symbols and drops its
// reference again. A library already loaded by Open stays mapped.
func probeLibrary(path string) error {
	h, err := dlopen(path)
	if err != nil {
		return err
	}
	_, err = resolve(h, path)
	if C.ql_dlclose(h) != 0 && err == nil {
		err = ErrNativeInit(fmt.Sprintf("dlclose(%q)", path), errors.New(dlerr()))
	}
	return err
}

func dlopen(path string) (unsafe.Pointer, error) {
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	h := C.ql_dlopen(cs)
	if h == nil {
		return nil, ErrNativeInit(fmt.Sprintf("dlopen(%q)", path), errors.New(dlerr()))
	}
	return h, nil
}

func resolve(h unsafe.Pointer, path string) (*nativeLibrary, error) {
	lib := &nativeLibrary{path: path}
	required := []struct {
		name string
		dst  *unsafe.Pointer
	}{
		{"querylog_create", &lib.create},
		{"querylog_dispatch", &lib.dispatch},
		{"querylog_destroy", &lib.destroy},
	}
	for _, s := range required {
		p, err := sym(h, s.name)
		if err != nil {
			return nil, ErrNativeInit(fmt.Sprintf("resolve %s in %s", s.name, path), err)
		}
		*s.dst = p
	}
	// optional
	if p, err := sym(h, "querylog_init_logging"); err == nil {
		lib.initLog = p
	}
	return lib, nil
}

func sym(h unsafe.Pointer, name string) (unsafe.Pointer, error) {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	var cerr *C.char
	p := C.ql_dlsym(h, cs, &cerr)
	if cerr != nil {
		return nil, errors.New(C.GoString(cerr))
	}
	if p == nil {
		return nil, fmt.Errorf("symbol %s is NULL", name)
	}
	return p, nil
}

// cbuf points C at the bytes of s. The native side copies what it keeps
// before returning.
func cbuf(s string) (*C.char, C.size_t) {
	if len(s) == 0 {
		return nil, 0
	}
	return (*C.char)(unsafe.Pointer(unsafe.StringData(s))), C.size_t(len(s))
}

func (l *nativeLibrary) Name() string { return "native:" + l.path }

func (l *nativeLibrary) CreateContext(encodedConfig string) (Handle, error) {
	p, n := cbuf(encodedConfig)
	h := Handle(C.ql_call_create(l.create, p, n))
	if h == 0 {
		return 0, ErrNativeInit("native engine rejected configuration", nil)
	}
	return h, nil
}

func (l *nativeLibrary) Dispatch(h Handle, kind types.EventKind, payload string) error {
	if !kind.Valid() {
		return ErrDispatch(h, kind, StatusBadKind, statusMessage(StatusBadKind))
	}
	p, n := cbuf(payload)
	status := int32(C.ql_call_dispatch(l.dispatch, C.int64_t(h), C.int32_t(kind), p, n))
	if status != StatusOK {
		return ErrDispatch(h, kind, status, statusMessage(status))
	}
	return nil
}

func (l *nativeLibrary) DestroyContext(h Handle) error {
	C.ql_call_destroy(l.destroy, C.int64_t(h))
	return nil
}

func (l *nativeLibrary) initLogging() bool {
	if l.initLog == nil {
		return false
	}
	C.ql_call_init_logging(l.initLog)
	return true
}
