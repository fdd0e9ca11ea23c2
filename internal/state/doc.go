// Package state tracks the health of the connection to the library service.
//
// The cache observer calls Store.Record after every query and mutation; the
// TUI header and the background refresher read Store.Snapshot:
//
//	cache observer ──→ store.Record(err) ──→ store.Snapshot() ──→ header / backoff
//
// A failure keeps the previous success time and records the error. Two
// failures in a row mark the service offline; any success clears it.
//
// The zero Store is ready to use. Snapshot returns a copy, with the error
// wrapped so callers never hold the stored instance.
package state
