package directory

import (
	"sync"

	xerrors "github.com/tunaoezer/Intercom/errors"
)

// Directory is a thread-safe facade over a tree of DirectoryNodes rooted at
// an unnamed root node, exposing path-based handler registration, request
// dispatch, and the link/unlink access-control overlays.
type Directory struct {
	mu   sync.Mutex
	root *DirectoryNode
}

// NewDirectory constructs an empty Directory.
func NewDirectory() *Directory {
	return &Directory{root: NewDirectoryNode("")}
}

var defaultDirectory = NewDirectory()

// Default returns the process-wide Directory singleton.
func Default() *Directory {
	return defaultDirectory
}

// CreatePath mounts a DirectoryNode at every path segment that does not yet
// exist and returns the node at path's leaf.
func (d *Directory) CreatePath(path string) (Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createPathLocked(path)
}

func (d *Directory) createPathLocked(path string) (Node, error) {
	walker := NewPathWalker(path)
	var current Node = d.root
	for !walker.AtLeaf() {
		walker.MoveDown()
		name := walker.CurrentNodeName()
		child := current.Child(name)
		if child == nil {
			child = NewDirectoryNode(name)
			if err := current.Mount(child); err != nil {
				return nil, err
			}
		}
		current = child
	}
	return current, nil
}

// GetNode returns the node at path, or nil if path does not fully exist.
func (d *Directory) GetNode(path string) Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.walkTo(path)
}

func (d *Directory) walkTo(path string) Node {
	walker := NewPathWalker(path)
	var current Node = d.root
	for !walker.AtLeaf() {
		walker.MoveDown()
		current = current.Child(walker.CurrentNodeName())
		if current == nil {
			return nil
		}
	}
	return current
}

// PathExists reports whether every segment of path is mounted.
func (d *Directory) PathExists(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.walkTo(path) != nil
}

// AddHandler creates path if necessary and adds handler to the node at its
// leaf.
func (d *Directory) AddHandler(path string, handler Handler) error {
	d.mu.Lock()
	node, err := d.createPathLocked(path)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	return node.AddHandler(handler)
}

// RemoveHandler removes the named handler from the node at path, if both
// exist, and reports whether a handler was removed.
func (d *Directory) RemoveHandler(path, name string) bool {
	node := d.GetNode(path)
	if node == nil {
		return false
	}
	return node.RemoveHandler(name)
}

// HasHandler reports whether the node at path has a handler named name.
func (d *Directory) HasHandler(path, name string) bool {
	node := d.GetNode(path)
	if node == nil {
		return false
	}
	return node.HasHandler(name)
}

// RemovePath unmounts only the leaf segment of path from its immediate
// parent; ancestors and siblings are left untouched. The root path cannot
// be removed.
func (d *Directory) RemovePath(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	walker := NewPathWalker(path)
	if walker.NumNodes() <= 1 {
		return false
	}
	var parent Node = d.root
	for walker.CurrentLevel() < walker.NumNodes()-2 {
		walker.MoveDown()
		parent = parent.Child(walker.CurrentNodeName())
		if parent == nil {
			return false
		}
	}
	walker.MoveDown()
	leaf := parent.Child(walker.CurrentNodeName())
	if leaf == nil {
		return false
	}
	return parent.Unmount(leaf)
}

// Handle resolves the node at basePath and dispatches request to it. The
// request's own URI path is walked relative to that base node, so callers
// typically address requests with paths relative to a connection's home
// node. Returns 0 if basePath does not exist.
func (d *Directory) Handle(basePath string, request *Request) int {
	base := d.GetNode(basePath)
	if base == nil {
		return 0
	}
	return base.Handle(request)
}

// Link grants access to the subtree rooted at to by grafting a VirtualNode
// overlay of to onto from. Linking never mutates to's own handlers: adding
// handlers to the link only affects the overlay, and Unlink removes
// exactly what Link added.
//
// Both from and to must already exist; Link never creates a path. Fails
// with ErrNodeNotFound if either is missing, or ErrDuplicateName if from
// is already linked to to.
func (d *Directory) Link(from, to string) error {
	fromNode := d.GetNode(from)
	if fromNode == nil {
		return xerrors.WrapInvalid(xerrors.ErrNodeNotFound, "directory", "Link", from)
	}
	toNode := d.GetNode(to)
	if toNode == nil {
		return xerrors.WrapInvalid(xerrors.ErrNodeNotFound, "directory", "Link", to)
	}
	virtualHandlerName := "virtual:" + from
	if toNode.HasHandler(virtualHandlerName) {
		return xerrors.WrapInvalid(xerrors.ErrDuplicateName, "directory", "Link", from)
	}
	virtual := NewVirtualNode(toNode, virtualHandlerName)
	return fromNode.Mount(virtual)
}

// Unlink reverses a prior Link between from and to. The overlay's
// VirtualNode is irrevocably deactivated before being unmounted, so it
// cannot be silently reactivated by a later operation. Reports whether a
// link was found and removed.
func (d *Directory) Unlink(from, to string) bool {
	fromNode := d.GetNode(from)
	if fromNode == nil {
		return false
	}
	toNode := d.GetNode(to)
	if toNode == nil {
		return false
	}
	child := fromNode.Child(toNode.Name())
	if child == nil {
		return false
	}
	if virtual, ok := child.(*VirtualNode); ok {
		virtual.Deactivate()
	}
	return fromNode.Unmount(child)
}
