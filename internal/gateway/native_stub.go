//go:build !native || !cgo

package gateway

// Compiled when the 'native' build tag or cgo is missing, keeping default
// builds cgo-free. The dlopen binding lives in native_cgo.go.

const nativeBuilt = false

var errNotBuilt = ErrNativeInit("native support not built (missing 'native' build tag)", nil)

func openLibrary(string) (library, error) { return nil, errNotBuilt }

func probeLibrary(string) error { return errNotBuilt }
