package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualNode_OverlayInstalledOnFirstHandler(t *testing.T) {
	underlying := NewDirectoryNode("resource")
	v := NewVirtualNode(underlying, "virtual:peer")

	assert.False(t, underlying.HasHandler("virtual:peer"))

	called := 0
	require.NoError(t, v.AddHandler(NewHandlerFunc("h1", func(*Request) { called++ })))
	assert.True(t, underlying.HasHandler("virtual:peer"))

	// Adding a second handler must not install the overlay a second time
	// (which would fail with ErrDuplicateName).
	require.NoError(t, v.AddHandler(NewHandlerFunc("h2", func(*Request) {})))
	assert.True(t, underlying.HasHandler("virtual:peer"))
}

func TestVirtualNode_OverlayRemovedWhenHandlerSetEmpties(t *testing.T) {
	underlying := NewDirectoryNode("resource")
	v := NewVirtualNode(underlying, "virtual:peer")

	require.NoError(t, v.AddHandler(NewHandlerFunc("h1", func(*Request) {})))
	require.NoError(t, v.AddHandler(NewHandlerFunc("h2", func(*Request) {})))
	assert.True(t, underlying.HasHandler("virtual:peer"))

	assert.True(t, v.RemoveHandler("h1"))
	assert.True(t, underlying.HasHandler("virtual:peer"), "overlay must survive while the handler set is non-empty")

	assert.True(t, v.RemoveHandler("h2"))
	assert.False(t, underlying.HasHandler("virtual:peer"), "overlay must be removed once the handler set empties")
}

func TestVirtualNode_RequestsOnUnderlyingNodeRelayToVirtualHandlers(t *testing.T) {
	underlying := NewDirectoryNode("")
	target := NewDirectoryNode("resource")
	require.NoError(t, underlying.Mount(target))

	v := NewVirtualNode(target, "virtual:peer")
	called := false
	require.NoError(t, v.AddHandler(NewHandlerFunc("h1", func(*Request) { called = true })))

	request := newTestRequest(t, "/resource")
	n := underlying.Handle(request)

	assert.Equal(t, 1, n)
	assert.True(t, called)
}

func TestVirtualNode_Deactivate_RemovesOverlayIrrevocably(t *testing.T) {
	underlying := NewDirectoryNode("resource")
	v := NewVirtualNode(underlying, "virtual:peer")
	require.NoError(t, v.AddHandler(NewHandlerFunc("h1", func(*Request) {})))
	require.True(t, underlying.HasHandler("virtual:peer"))

	removed := v.Deactivate()
	assert.True(t, removed)
	assert.False(t, underlying.HasHandler("virtual:peer"))

	// Adding a handler to a deactivated virtual node must not reinstall the
	// overlay: this is what prevents a stale link from reactivating access.
	err := v.AddHandler(NewHandlerFunc("h2", func(*Request) {}))
	assert.NoError(t, err)
	assert.False(t, underlying.HasHandler("virtual:peer"))
}

func TestVirtualNode_Deactivate_CascadesToVirtualChildren(t *testing.T) {
	underlying := NewDirectoryNode("resource")
	child := NewDirectoryNode("child")
	require.NoError(t, underlying.Mount(child))

	v := NewVirtualNode(underlying, "virtual:peer")
	vChild, ok := v.Child("child").(*VirtualNode)
	require.True(t, ok)
	require.NoError(t, vChild.AddHandler(NewHandlerFunc("h1", func(*Request) {})))
	assert.True(t, child.HasHandler("virtual:peer:child"))

	v.Deactivate()
	assert.False(t, child.HasHandler("virtual:peer:child"))

	err := vChild.AddHandler(NewHandlerFunc("h2", func(*Request) {}))
	assert.NoError(t, err)
	assert.False(t, child.HasHandler("virtual:peer:child"))
}

func TestVirtualNode_ChildIsMemoizedAndMirrorsUnderlying(t *testing.T) {
	underlying := NewDirectoryNode("resource")
	child := NewDirectoryNode("child")
	require.NoError(t, underlying.Mount(child))

	v := NewVirtualNode(underlying, "virtual:peer")
	first := v.Child("child")
	second := v.Child("child")
	assert.Same(t, first, second)
	assert.Nil(t, v.Child("missing"))
}
