// Package listener is the host-facing side of the bridge. A Factory turns a
// configuration map into a Listener bound to exactly one native context; the
// Listener forwards lifecycle events across the gateway and releases the
// context exactly once, on Close or when the Listener becomes unreachable.
//
// Files:
//   - handle.go: the guarded native token.
//   - factory.go: Factory and Options.
//   - forward.go: event delivery and failure accounting.
//   - reaper.go: the single release path and its triggers.
//   - registry.go: live listeners for status reporting and shutdown.
//   - plugin.go: plugin surface exposing the factories.
package listener
