package directory

import (
	"sync"

	xerrors "github.com/tunaoezer/Intercom/errors"
)

// virtualNodeHandler is the single catch-all handler a VirtualNode installs
// on its underlying node. It fans a request out to the VirtualNode's own
// handler set rather than processing the request itself.
type virtualNodeHandler struct {
	BaseHandler
	owner *VirtualNode
}

func newVirtualNodeHandler(name string, owner *VirtualNode) *virtualNodeHandler {
	return &virtualNodeHandler{BaseHandler: NewBaseCatchAllHandler(name), owner: owner}
}

func (h *virtualNodeHandler) Handle(request *Request) {
	h.owner.mu.Lock()
	handlers := make([]Handler, 0, len(h.owner.handlers))
	for _, handler := range h.owner.handlers {
		handlers = append(handlers, handler)
	}
	h.owner.mu.Unlock()
	for _, handler := range handlers {
		handler.Handle(request)
	}
}

func (h *virtualNodeHandler) HandleCatchAll(pathRemainder string, request *Request) {
	h.owner.mu.Lock()
	catchAll := make([]Handler, len(h.owner.catchAllHandlers))
	copy(catchAll, h.owner.catchAllHandlers)
	h.owner.mu.Unlock()
	for _, handler := range catchAll {
		handler.HandleCatchAll(pathRemainder, request)
	}
}

// VirtualNode overlays another Node with an independent handler set,
// without mutating the underlying node's own handlers.
//
// Most operations on a VirtualNode are relayed to the underlying node, so a
// VirtualNode looks mostly like its underlying node from the outside.
// Mounting a node under a VirtualNode mounts it under the underlying node;
// VirtualNodes have no real children of their own, only lazily-created
// virtual children that mirror the underlying node's children.
//
// A VirtualNode adds itself to the underlying node as a single catch-all
// handler the moment its own handler set becomes non-empty, and removes
// that handler the moment its handler set becomes empty again. This is the
// mechanism that makes linking a safe access-control primitive: granting
// and revoking access only ever touches the VirtualNode's own state, never
// the shared resource it overlays.
type VirtualNode struct {
	mu               sync.Mutex
	node             Node
	active           bool
	children         map[string]*VirtualNode
	handlers         map[string]Handler
	catchAllHandlers []Handler
	virtualHandler   *virtualNodeHandler
}

// NewVirtualNode creates a VirtualNode overlaying node. handlerName is the
// name under which the VirtualNode's catch-all handler is (lazily)
// registered with node, and must be unique among node's handlers.
func NewVirtualNode(node Node, handlerName string) *VirtualNode {
	v := &VirtualNode{
		node:     node,
		active:   true,
		children: make(map[string]*VirtualNode),
		handlers: make(map[string]Handler),
	}
	v.virtualHandler = newVirtualNodeHandler(handlerName, v)
	return v
}

func (v *VirtualNode) AddHandler(handler Handler) error {
	v.mu.Lock()
	if _, exists := v.handlers[handler.Name()]; exists {
		v.mu.Unlock()
		return xerrors.WrapInvalid(xerrors.ErrDuplicateName, "directory", "VirtualNode.AddHandler", handler.Name())
	}
	v.handlers[handler.Name()] = handler
	installOverlay := v.active && len(v.handlers) == 1
	if handler.IsCatchAll() {
		v.catchAllHandlers = append(v.catchAllHandlers, handler)
	}
	v.mu.Unlock()
	if installOverlay {
		return v.node.AddHandler(v.virtualHandler)
	}
	return nil
}

// Deactivate permanently disables this VirtualNode and, recursively, all of
// its lazily-created virtual children. Once deactivated, the overlay
// handler is removed from the underlying node and can never be
// reinstalled, even if handlers are later added to this VirtualNode.
//
// Deactivate must be called when unlinking a node; without it, a reference
// to the discarded VirtualNode held elsewhere could re-add handlers and
// silently reinstate access that was meant to be revoked.
func (v *VirtualNode) Deactivate() bool {
	v.mu.Lock()
	v.active = false
	children := make([]*VirtualNode, 0, len(v.children))
	for _, c := range v.children {
		children = append(children, c)
	}
	v.mu.Unlock()
	for _, c := range children {
		c.Deactivate()
	}
	return v.node.RemoveHandler(v.virtualHandler.Name())
}

func (v *VirtualNode) Child(name string) Node {
	v.mu.Lock()
	if child, ok := v.children[name]; ok {
		v.mu.Unlock()
		return child
	}
	v.mu.Unlock()

	underlying := v.node.Child(name)
	if underlying == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if child, ok := v.children[name]; ok {
		return child
	}
	virtualChild := NewVirtualNode(underlying, v.virtualHandler.Name()+":"+underlying.Name())
	v.children[name] = virtualChild
	return virtualChild
}

func (v *VirtualNode) Children() []Node {
	return v.node.Children()
}

func (v *VirtualNode) Name() string {
	return v.node.Name()
}

func (v *VirtualNode) Handle(request *Request) int {
	return v.node.Handle(request)
}

func (v *VirtualNode) HasChild(name string) bool {
	return v.node.HasChild(name)
}

func (v *VirtualNode) HasHandler(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.handlers[name]
	return ok
}

func (v *VirtualNode) IsReachable(node Node) bool {
	return v.node.IsReachable(node)
}

func (v *VirtualNode) Mount(child Node) error {
	return v.node.Mount(child)
}

func (v *VirtualNode) NumChildren() int {
	return v.node.NumChildren()
}

func (v *VirtualNode) RemoveHandler(name string) bool {
	v.mu.Lock()
	handler, ok := v.handlers[name]
	if !ok {
		v.mu.Unlock()
		return false
	}
	delete(v.handlers, name)
	if handler.IsCatchAll() {
		v.removeCatchAll(name)
	}
	removeOverlay := len(v.handlers) == 0
	v.mu.Unlock()
	if removeOverlay {
		v.node.RemoveHandler(v.virtualHandler.Name())
	}
	return true
}

func (v *VirtualNode) removeCatchAll(name string) {
	for i, h := range v.catchAllHandlers {
		if h.Name() == name {
			v.catchAllHandlers = append(v.catchAllHandlers[:i], v.catchAllHandlers[i+1:]...)
			return
		}
	}
}

func (v *VirtualNode) Unmount(child Node) bool {
	return v.node.Unmount(child)
}

func (v *VirtualNode) handle(request *Request, walker *PathWalker) int {
	return v.node.handle(request, walker)
}
