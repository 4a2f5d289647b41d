package listener

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"querylog/internal/gateway"
)

func TestRegistry_SnapshotAndCloseAll(t *testing.T) {
	reg := NewRegistry()
	f, mem := newTestFactory(t, Options{Registry: reg})
	var ls []*Listener
	for i := 0; i < 3; i++ {
		l, err := f.Create(map[string]string{ConfigTrackCreated: "false"})
		require.NoError(t, err)
		ls = append(ls, l)
	}
	ls[0].QueryCreated(created("q1"))
	ls[0].QueryCompleted(completed("q1"))
	ls[1].SplitCompleted(split("q2", 0))

	snap := reg.Snapshot()
	require.Len(t, snap, 3)
	byID := map[string]int{}
	for i, s := range snap {
		byID[s.ID] = i
		assert.Equal(t, DefaultFactoryName, s.Factory)
	}
	s0 := snap[byID[ls[0].ID()]]
	assert.EqualValues(t, 1, s0.Dispatched)
	assert.EqualValues(t, 1, s0.Skipped)

	require.NoError(t, ls[2].Close())
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, reg.CloseAll())
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, mem.Live())
	for _, l := range ls {
		assert.True(t, l.Closed())
		require.NoError(t, l.Close())
	}
	for _, c := range mem.Calls() {
		if c.Op == "create" {
			assert.Equal(t, 1, mem.DestroyCount(c.Handle))
		}
	}
	_, err := f.Create(nil)
	assert.True(t, IsListenerCreationError(err))
}

func TestRegistry_CloseAllCombinesErrors(t *testing.T) {
	reg := NewRegistry()
	mem := gateway.NewMemory(nil)
	var ls []*Listener
	for _, tok := range []gateway.Handle{101, 102} {
		f := NewFactory(Options{Gateway: fixedGateway{Memory: mem, token: tok}, Registry: reg})
		l, err := f.Create(nil)
		require.NoError(t, err)
		ls = append(ls, l)
	}
	// Both tokens are unknown to the memory engine, so both destroys fail.
	err := reg.CloseAll()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	runtime.KeepAlive(ls)
}

func TestRegistry_AddRemove(t *testing.T) {
	f, _ := newTestFactory(t, Options{})
	l, err := f.Create(nil)
	require.NoError(t, err)
	reg := NewRegistry()
	require.NoError(t, reg.Add(l))
	assert.Equal(t, 1, reg.Len())
	reg.Remove(l)
	assert.Equal(t, 0, reg.Len())
	require.NoError(t, l.Close())
	assert.True(t, IsHandleStateError(reg.Add(l)))
}

func TestRegistry_ListenerBelongsToOneRegistry(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	f, _ := newTestFactory(t, Options{Registry: a})
	l, err := f.Create(nil)
	require.NoError(t, err)

	require.NoError(t, a.Add(l), "re-adding to the owning registry is a no-op")
	assert.Equal(t, 1, a.Len())
	require.ErrorIs(t, b.Add(l), errRegisteredElsewhere)
	assert.Equal(t, 0, b.Len())

	require.NoError(t, l.Close())
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestRegistry_RemoveThenAddElsewhere(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	f, _ := newTestFactory(t, Options{Registry: a})
	l, err := f.Create(nil)
	require.NoError(t, err)

	a.Remove(l)
	require.NoError(t, b.Add(l))
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 1, b.Len())

	require.NoError(t, l.Close())
	assert.Equal(t, 0, b.Len())
}
