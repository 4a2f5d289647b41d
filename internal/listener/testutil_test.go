package listener

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"querylog/internal/gateway"
	"querylog/pkg/types"
)

var t0 = time.Date(2024, 3, 1, 10, 15, 30, 123456789, time.UTC)

func created(id string) *types.QueryCreatedEvent {
	return &types.QueryCreatedEvent{
		CreateTime: types.NewTimestamp(t0),
		Metadata:   types.QueryMetadata{QueryID: id, Query: "SELECT 1", QueryState: "QUEUED"},
	}
}

func completed(id string) *types.QueryCompletedEvent {
	return &types.QueryCompletedEvent{
		Metadata:   types.QueryMetadata{QueryID: id, Query: "SELECT 1", QueryState: "FINISHED"},
		Statistics: types.QueryStatistics{WallTime: types.Duration(1500 * time.Millisecond), Complete: true},
		CreateTime: types.NewTimestamp(t0),
		EndTime:    types.NewTimestamp(t0.Add(2 * time.Second)),
	}
}

func split(id string, n int) *types.SplitCompletedEvent {
	return &types.SplitCompletedEvent{
		QueryID:    id,
		StageID:    id + ".1",
		TaskID:     fmt.Sprintf("%s.1.%d", id, n),
		CreateTime: types.NewTimestamp(t0),
	}
}

func nanCompleted() *types.QueryCompletedEvent {
	ev := completed("nan")
	ev.Statistics.CumulativeMemory = math.NaN()
	return ev
}

func newTestFactory(t *testing.T, opts Options) (*Factory, *gateway.Memory) {
	t.Helper()
	mem := gateway.NewMemory(nil)
	if opts.Gateway == nil {
		opts.Gateway = mem
	}
	return NewFactory(opts), mem
}

// handleOf returns the token of the first context created in mem.
func handleOf(t *testing.T, mem *gateway.Memory) gateway.Handle {
	t.Helper()
	for _, c := range mem.Calls() {
		if c.Op == "create" {
			return c.Handle
		}
	}
	t.Fatalf("no create call recorded")
	return 0
}

// fixedGateway always returns the same token.
type fixedGateway struct {
	*gateway.Memory
	token gateway.Handle
}

func (g fixedGateway) CreateContext(string) (gateway.Handle, error) { return g.token, nil }

// panicGateway panics inside Dispatch and DestroyContext.
type panicGateway struct {
	mu        sync.Mutex
	destroyed int
}

func (*panicGateway) Name() string                                 { return "panic" }
func (*panicGateway) CreateContext(string) (gateway.Handle, error) { return 42, nil }
func (*panicGateway) Dispatch(gateway.Handle, types.EventKind, string) error {
	panic("native fault")
}
func (g *panicGateway) DestroyContext(gateway.Handle) error {
	g.mu.Lock()
	g.destroyed++
	g.mu.Unlock()
	panic("destroy fault")
}
