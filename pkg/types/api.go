package types

// ListenerStatus summarizes one live listener instance for /status.
type ListenerStatus struct {
	// Process-unique listener instance id (not the native handle).
	// example: 4f7c2a9e-0c1b-4d55-9a51-2d0f3c1e9b7a
	ID string `json:"id" example:"4f7c2a9e-0c1b-4d55-9a51-2d0f3c1e9b7a"`
	// Name of the factory that created the listener.
	// example: rust-querylog-event-listener
	Factory string `json:"factory" example:"rust-querylog-event-listener"`
	// Creation time of the listener (unix seconds).
	// example: 1700000000
	CreatedUnix int64 `json:"created_unix" example:"1700000000"`
	// Events handed off to the native engine.
	// example: 42
	Dispatched uint64 `json:"dispatched" example:"42"`
	// Events that failed to encode or cross the boundary.
	// example: 0
	Failed uint64 `json:"failed" example:"0"`
	// Events dropped on the host side by configuration.
	// example: 0
	Skipped uint64 `json:"skipped" example:"0"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Name of the registered listener factory.
	// example: rust-querylog-event-listener
	Factory string `json:"factory" example:"rust-querylog-event-listener"`
	// Gateway backing the factory (e.g., native:/usr/local/lib/libquerylog.so, memory).
	// example: memory
	Gateway string `json:"gateway" example:"memory"`
	// Whether the native engine could be loaded.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Load error when the native engine is unavailable.
	Error string `json:"error,omitempty"`
	// Live listener instances.
	Listeners []ListenerStatus `json:"listeners"`
	// Uptime of the process in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// InspectResponse is returned by POST /inspect.
type InspectResponse struct {
	// Envelope version of the payload.
	// example: 1
	Version int `json:"version" example:"1"`
	// Event kind carried by the payload.
	// example: query_completed
	Kind string `json:"kind" example:"query_completed"`
	// Decoded event, re-encoded in canonical form.
	Event Event `json:"event"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	// example: payload has no numeric version
	Error string `json:"error"`
	// example: 400
	Code int `json:"code"`
}
