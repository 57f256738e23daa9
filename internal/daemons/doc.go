// Package daemons holds the client-side cache of the console's daemon tree
// and the operations that act on it.
//
// The Tree mirrors ApplicationRouter.getTree and is reconciled in place on
// every refresh. The Controller issues start/stop/restart/setAutoStart and
// device assignment calls and hands back a Change describing what to apply
// once the server confirmed it. The RestartTracker follows in-flight
// restarts by polling getInfo until each daemon reports it is done.
//
// None of the types here lock. Callers mutate a Tree and a RestartTracker
// from a single goroutine (the console's Update loop or a CLI command) and
// only run the RPC halves concurrently.
package daemons
