// Package http implements the local control API of the sync daemon.
//
// The API lets a front end on the same machine read the sync status and
// history, force a sync, answer a device conflict and edit local records.
// Request tracing and access logging are handled here before requests are
// delegated to the service layer. The API carries no authentication and is
// meant to listen on a loopback address only.
package http
