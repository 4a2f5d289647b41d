// Package gateway is the foreign-call boundary between the host and the native
// query-log engine. It exposes three operations (create, dispatch, destroy)
// over an opaque integer handle and owns the calling convention and error
// mapping for each implementation:
//
//   - gateway.go: Gateway interface and Handle type.
//   - errors.go: NativeInitError and DispatchError.
//   - open.go: process-wide, init-once library load (Open, Check).
//   - native_cgo.go: dlopen-based binding, built with `-tags=native` and cgo.
//   - native_stub.go: used otherwise; every load fails with NativeInitError.
//   - memory.go: simulated native engine for tests and dry runs.
//
// The native library must export the C ABI:
//
//	int64_t querylog_create(const char *config, size_t len);   // 0 on failure
//	int32_t querylog_dispatch(int64_t handle, int32_t kind, const char *payload, size_t len);
//	void    querylog_destroy(int64_t handle);
//	void    querylog_init_logging(void);                          // optional
//
// querylog_dispatch returns once the payload has been copied into the
// engine's own buffers; it must not wait for durable persistence.
// querylog_destroy is not required to be idempotent, callers guarantee a
// single call per handle.
package gateway
