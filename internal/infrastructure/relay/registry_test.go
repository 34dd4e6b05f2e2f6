package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConn() *Conn {
	return &Conn{
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

func TestRegistryBindAndResolve(t *testing.T) {
	registry := NewRegistry()
	conn := testConn()

	prev := registry.Bind("buyer-1", conn)
	assert.Nil(t, prev)

	resolved, ok := registry.Resolve("buyer-1")
	assert.True(t, ok)
	assert.Same(t, conn, resolved)

	_, ok = registry.Resolve("buyer-2")
	assert.False(t, ok)
}

func TestRegistryRebindReturnsSuperseded(t *testing.T) {
	registry := NewRegistry()
	first := testConn()
	second := testConn()

	registry.Bind("buyer-1", first)
	prev := registry.Bind("buyer-1", second)

	assert.Same(t, first, prev)
	assert.Equal(t, 1, registry.Len())

	resolved, ok := registry.Resolve("buyer-1")
	assert.True(t, ok)
	assert.Same(t, second, resolved)
}

func TestRegistryRebindSameConnIsNoop(t *testing.T) {
	registry := NewRegistry()
	conn := testConn()

	registry.Bind("buyer-1", conn)
	prev := registry.Bind("buyer-1", conn)

	assert.Nil(t, prev)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryRemoveOnlyMatchingConn(t *testing.T) {
	registry := NewRegistry()
	first := testConn()
	second := testConn()

	registry.Bind("buyer-1", first)
	registry.Bind("buyer-1", second)

	// A superseded connection closing must not unregister its replacement.
	assert.False(t, registry.Remove("buyer-1", first))
	_, ok := registry.Resolve("buyer-1")
	assert.True(t, ok)

	assert.True(t, registry.Remove("buyer-1", second))
	_, ok = registry.Resolve("buyer-1")
	assert.False(t, ok)
}

func TestRegistrySnapshot(t *testing.T) {
	registry := NewRegistry()
	registry.Bind("buyer-1", testConn())
	registry.Bind("seller-1", testConn())

	assert.Len(t, registry.Snapshot(), 2)
}
