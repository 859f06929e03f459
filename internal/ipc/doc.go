// Package ipc exposes daemon control over JSON-RPC on a Unix domain
// socket. The server registers the SmartTask service against a daemon
// instance; Client wraps the matching calls for the CLI.
package ipc
