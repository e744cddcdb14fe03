package directory

import (
	"sync"

	xerrors "github.com/tunaoezer/Intercom/errors"
)

// Node represents a resource or group of resources identified by a URI and
// provides a mechanism to handle requests directed at those resources.
//
// Nodes are arranged in an acyclic directed graph: a node can have child
// nodes and multiple parent nodes. A node can be associated with one or
// more Handlers that process requests to the resources it or its
// descendants represent.
type Node interface {
	// AddHandler adds handler to this node's handler set. Fails with
	// ErrDuplicateName if a handler with the same name already exists.
	AddHandler(handler Handler) error

	// Child returns the named child node, or nil if there is none.
	Child(name string) Node

	// Children returns the child nodes mounted at this node.
	Children() []Node

	// Name returns the name used to refer to this node in paths and URIs.
	Name() string

	// Handle processes request, walking the node hierarchy from this node
	// down to the request's target, running catch-all handlers along the
	// way and all handlers at the target. Returns the number of handlers
	// run. If the target node does not exist, only catch-all handlers run.
	Handle(request *Request) int

	// HasChild reports whether this node has a direct child named name.
	HasChild(name string) bool

	// HasHandler reports whether this node has a handler named name.
	HasHandler(name string) bool

	// IsReachable reports whether there is a path from this node to node.
	IsReachable(node Node) bool

	// Mount attaches child as a child of this node. Fails with
	// ErrDuplicateName if a child with the same name is already mounted, or
	// ErrCyclic if mounting would create a cycle.
	Mount(child Node) error

	// NumChildren returns the number of child nodes mounted at this node.
	NumChildren() int

	// RemoveHandler removes the named handler, if present, and reports
	// whether it was removed.
	RemoveHandler(name string) bool

	// Unmount detaches child from this node, if mounted, and reports
	// whether it was unmounted.
	Unmount(child Node) bool

	// handle is the internal recursive step of Handle, sharing a single
	// PathWalker as it descends.
	handle(request *Request, walker *PathWalker) int
}

// DirectoryNode is the concrete Node implementation: a resource addressable
// by name with its own handler set and child nodes. DirectoryNode is
// thread-safe.
type DirectoryNode struct {
	mu               sync.Mutex
	name             string
	children         map[string]Node
	handlers         map[string]Handler
	catchAllHandlers []Handler
}

// NewDirectoryNode constructs a DirectoryNode identified by name.
func NewDirectoryNode(name string) *DirectoryNode {
	return &DirectoryNode{
		name:     name,
		children: make(map[string]Node),
		handlers: make(map[string]Handler),
	}
}

func (n *DirectoryNode) AddHandler(handler Handler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.handlers[handler.Name()]; exists {
		return xerrors.WrapInvalid(xerrors.ErrDuplicateName, "directory", "AddHandler", handler.Name())
	}
	n.handlers[handler.Name()] = handler
	if handler.IsCatchAll() {
		n.catchAllHandlers = append(n.catchAllHandlers, handler)
	}
	return nil
}

func (n *DirectoryNode) Child(name string) Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	child, ok := n.children[name]
	if !ok {
		return nil
	}
	return child
}

func (n *DirectoryNode) Children() []Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	return out
}

func (n *DirectoryNode) Name() string {
	return n.name
}

func (n *DirectoryNode) Handle(request *Request) int {
	return n.handle(request, NewPathWalker(request.Uri().Path()))
}

func (n *DirectoryNode) HasChild(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.children[name]
	return ok
}

func (n *DirectoryNode) HasHandler(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.handlers[name]
	return ok
}

func (n *DirectoryNode) IsReachable(node Node) bool {
	if node == Node(n) {
		return true
	}
	n.mu.Lock()
	children := make([]Node, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	n.mu.Unlock()
	for _, c := range children {
		if c.IsReachable(node) {
			return true
		}
	}
	return false
}

func (n *DirectoryNode) Mount(child Node) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.children[child.Name()]; exists {
		return xerrors.WrapInvalid(xerrors.ErrDuplicateName, "directory", "Mount", child.Name())
	}
	if child.IsReachable(n) {
		return xerrors.WrapInvalid(xerrors.ErrCyclic, "directory", "Mount", child.Name())
	}
	n.children[child.Name()] = child
	return nil
}

func (n *DirectoryNode) NumChildren() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.children)
}

func (n *DirectoryNode) RemoveHandler(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	handler, ok := n.handlers[name]
	if !ok {
		return false
	}
	delete(n.handlers, name)
	if handler.IsCatchAll() {
		n.removeCatchAll(name)
	}
	return true
}

func (n *DirectoryNode) removeCatchAll(name string) {
	for i, h := range n.catchAllHandlers {
		if h.Name() == name {
			n.catchAllHandlers = append(n.catchAllHandlers[:i], n.catchAllHandlers[i+1:]...)
			return
		}
	}
}

func (n *DirectoryNode) Unmount(child Node) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.children[child.Name()]; !ok {
		return false
	}
	delete(n.children, child.Name())
	return true
}

func (n *DirectoryNode) handle(request *Request, walker *PathWalker) int {
	if walker.AtLeaf() {
		n.mu.Lock()
		handlers := make([]Handler, 0, len(n.handlers))
		for _, h := range n.handlers {
			handlers = append(handlers, h)
		}
		n.mu.Unlock()
		for _, h := range handlers {
			h.Handle(request)
		}
		return len(handlers)
	}

	n.mu.Lock()
	catchAll := make([]Handler, len(n.catchAllHandlers))
	copy(catchAll, n.catchAllHandlers)
	n.mu.Unlock()

	executed := 0
	if len(catchAll) > 0 {
		remainder := walker.Remainder()
		for _, h := range catchAll {
			h.HandleCatchAll(remainder, request)
			executed++
		}
	}

	walker.MoveDown()
	n.mu.Lock()
	child := n.children[walker.CurrentNodeName()]
	n.mu.Unlock()
	if child != nil {
		executed += child.handle(request, walker)
	}
	return executed
}
