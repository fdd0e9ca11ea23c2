// Package app wires the shelf components together and runs the TUI.
//
// # Composition
//
// NewContainer registers one samber/do provider per component. Providers
// are lazy, so the CLI only builds what a command touches:
//
//	Options ──→ Config ──→ Logger ──→ Prefs ──→ Theme
//	                    └─→ Client ──→ Cache ──→ Catalog ──→ Refresher
//	                                     └─→ Health (observer)
//
// Handles that own resources (log file, cache, refresher) implement
// Shutdown and are closed by the container in reverse order.
//
// # Background Refresh
//
// When refresh_interval is positive the Refresher invalidates every query
// tag on each tick, so watched views refetch. After consecutive failures
// the delay doubles per failure up to 30 seconds; a success resets it.
package app
