package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterLastWriterWins(t *testing.T) {
	reg := NewRegistry()

	first := newFakeClient("alice")
	second := newFakeClient("alice")

	reg.Register(first)
	reg.Register(second)

	resolved, ok := reg.Resolve("alice")
	require.True(t, ok)
	require.Same(t, second, resolved)
	require.Equal(t, 1, reg.Len())

	// The superseded channel is neither closed nor notified.
	require.False(t, first.wasClosed())
	require.Empty(t, first.sent())
}

func TestRegistry_ResolveUnknownUser(t *testing.T) {
	reg := NewRegistry()

	resolved, ok := reg.Resolve("nobody")
	require.False(t, ok)
	require.Nil(t, resolved)
}

func TestRegistry_UnregisterRemovesEntry(t *testing.T) {
	reg := NewRegistry()
	client := newFakeClient("alice")
	reg.Register(client)

	removed, ok := reg.Unregister("alice")
	require.True(t, ok)
	require.Same(t, client, removed)

	_, ok = reg.Resolve("alice")
	require.False(t, ok)
	require.Equal(t, 0, reg.Len())
}

func TestRegistry_UnregisterUnknownUserIsNoop(t *testing.T) {
	reg := NewRegistry()

	removed, ok := reg.Unregister("nobody")
	require.False(t, ok)
	require.Nil(t, removed)
}
