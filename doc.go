// Package intercom provides a symmetric WAMP v1 (WebSocket Application
// Messaging Protocol) peer — simultaneously broker, dealer, publisher,
// subscriber, caller, and callee — layered on a hierarchical, URI-addressed
// directory of handlers that doubles as the system's access-control
// overlay.
//
// # Architecture
//
// Three subsystems compose into one coherent whole:
//
//	┌────────────────────────────────┐
//	│            directory            │  Handler dispatch tree.
//	│  (DirectoryNode, VirtualNode)   │  Virtual overlays = access control.
//	└────────────────┬─────────────────┘
//	                 │ Directory.Handle(homePath, request)
//	┌────────────────┴─────────────────┐
//	│             wampnet               │  Per-peer WAMP v1 state machine.
//	│   (Connection, WampConnection)    │  Parses/emits the 9 message types.
//	└────────────────┬─────────────────┘
//	                 │ installs a RelayHandler per subscription
//	┌────────────────┴─────────────────┐
//	│         wampnet (relay)            │  Republishes matching publishes to
//	│          RelayHandler              │  subscribers, honoring exclude/eligible.
//	└───────────────────────────────────┘
//
// A fourth package, registry, tracks which connections are currently ready
// and fans that out to registered services (the plugin-bridge role); a
// fifth, rpc, offers client-side RPC sugar (RemoteMethod/RemoteMethodCall)
// on top of wampnet's Connection.
//
// # What this package is not
//
// It does not implement the WebSocket transport or frame parsing — see
// package transport for the one concrete FrameSender adapter used by
// cmd/intercom — nor does it persist anything: every Directory, Connection,
// and registry is process-local and is discarded on restart. It does not
// perform authentication beyond an opaque session-id string, and it targets
// WAMP v1 only; newer WAMP revisions are out of scope.
//
// # Access control via linking
//
// Granting a peer access to a resource means calling
// Directory.Link(peerHomePath, resourcePath); revoking it means calling
// Directory.Unlink with the same arguments. Linking never mutates the real
// resource node — it grafts a VirtualNode overlay onto the peer's subtree
// that intercepts traversal through a single catch-all handler installed on
// the real node. Unlinking deactivates that overlay irrevocably, which is
// what prevents a dangling virtual child from silently reinstating access
// if a handler is added to it after the fact.
package intercom
