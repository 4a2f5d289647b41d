package types

import "fmt"

// EventKind identifies which lifecycle event a payload carries. The numeric
// values are part of the native ABI and must never be renumbered.
type EventKind int32

const (
	KindQueryCreated   EventKind = 0
	KindQueryCompleted EventKind = 1
	KindSplitCompleted EventKind = 2
)

var kindNames = map[EventKind]string{
	KindQueryCreated:   "query_created",
	KindQueryCompleted: "query_completed",
	KindSplitCompleted: "split_completed",
}

// String returns the wire name of the kind (e.g. "query_created").
func (k EventKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int32(k))
}

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseEventKind maps a wire name back to its EventKind.
func ParseEventKind(s string) (EventKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind: %q", s)
}

// Event is implemented by every host lifecycle event record.
type Event interface {
	EventKind() EventKind
}
