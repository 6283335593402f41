// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs for
// every control operation. Domain faults never surface as RPC errors:
// responses carry Ok plus a reason, so the only errors a client sees are
// transport failures (daemon offline, socket missing).
//
// Reuse these types when adding new RPC endpoints to keep the protocol
// stable and compatible with existing command implementations.
package ipc
