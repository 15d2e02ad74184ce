// Package server runs the local control API of the sync daemon.
//
// The server is a worker: it listens until its context is done and then
// shuts down gracefully, letting in-flight requests finish.
package server
