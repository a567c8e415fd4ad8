package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	id     string
	mu     sync.Mutex
	pushed [][]byte
}

func (f *fakeHandle) ID() string { return f.id }

func (f *fakeHandle) Push(p []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, p)
	return true
}

func TestRegistry_LastConnectWins(t *testing.T) {
	r := NewRegistry()
	h1 := &fakeHandle{id: "h1"}
	h2 := &fakeHandle{id: "h2"}

	assert.Nil(t, r.Connect("u", h1))
	old := r.Connect("u", h2)
	require.NotNil(t, old)
	assert.Equal(t, "h1", old.ID())

	got, ok := r.Lookup("u")
	require.True(t, ok)
	assert.Equal(t, "h2", got.ID())

	// Late disconnect of the replaced connection.
	assert.False(t, r.Disconnect("u", h1))
	assert.True(t, r.IsOnline("u"))

	assert.True(t, r.Disconnect("u", h2))
	assert.False(t, r.IsOnline("u"))
	_, ok = r.Lookup("u")
	assert.False(t, ok)
}

func TestRegistry_NormalizesUserID(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{id: "h"}

	r.Connect(" u\t", h)
	got, ok := r.Lookup("u")
	require.True(t, ok)
	assert.Equal(t, "h", got.ID())
	assert.True(t, r.IsOnline("  u "))

	assert.True(t, r.Disconnect("u ", h))
	assert.False(t, r.IsOnline("u"))
}

func TestRegistry_DisconnectUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Disconnect("ghost", &fakeHandle{id: "x"}))
	assert.False(t, r.Disconnect("ghost", nil))
	assert.Zero(t, r.Count())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		user := fmt.Sprintf("u%d", i%5)
		h := &fakeHandle{id: fmt.Sprintf("h%d", i)}
		go func() {
			defer wg.Done()
			r.Connect(user, h)
		}()
		go func() {
			defer wg.Done()
			if got, ok := r.Lookup(user); ok {
				got.Push([]byte("ping"))
			}
		}()
		go func() {
			defer wg.Done()
			r.Disconnect(user, h)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Count(), 5)
	for u, h := range r.Snapshot() {
		got, ok := r.Lookup(u)
		require.True(t, ok)
		assert.Equal(t, h.ID(), got.ID())
	}
}
