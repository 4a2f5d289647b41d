package gateway

import (
	"fmt"

	"querylog/pkg/types"
)

// Handle is the opaque token naming one native context. The host never
// interprets its bits; zero is never a valid handle.
type Handle int64

func (h Handle) String() string { return fmt.Sprintf("0x%x", int64(h)) }

// Status codes returned by querylog_dispatch.
const (
	StatusOK            int32 = 0
	StatusUnknownHandle int32 = 1
	StatusInternalFault int32 = 2
	StatusBadKind       int32 = 3
	// StatusPanic is never returned by the native side; it marks a panic
	// recovered on the host side of the boundary.
	StatusPanic int32 = -1
)

// Gateway is the boundary contract. Implementations must be safe for
// concurrent use.
type Gateway interface {
	// CreateContext allocates a native context from encoded configuration.
	CreateContext(encodedConfig string) (Handle, error)
	// Dispatch hands one encoded event to the context named by h.
	Dispatch(h Handle, kind types.EventKind, payload string) error
	// DestroyContext releases everything tied to h. Must be called at most once per handle.
	DestroyContext(h Handle) error
	// Name describes the implementation, e.g. "native:/usr/local/lib/libquerylog.so".
	Name() string
}
