// Package cache is the data-synchronization layer between the UI and the
// library service.
//
// # Overview
//
// Every remote operation is declared once as an Endpoint. Queries provide
// tags; mutations invalidate tags. The Cache stores one entry per
// (endpoint, argument) pair and keeps it current:
//
//	Subscribe(listBooks)      ──→ fetch ──→ entry{Books} fulfilled
//	Mutate(borrowBook)        ──→ POST  ──→ Invalidate(Books, Book, Borrows)
//	                                         ↓
//	                              subscribed entries refetch
//	                              unsubscribed entries are dropped
//
// # Deduplication
//
// Identical queries in flight share a single request through
// golang.org/x/sync/singleflight. The shared request runs on the cache's own
// context, so a caller that gives up does not abort it for the others.
//
// # Ordering
//
// Each request gets a sequence number when it starts. A response is applied
// only if it is newer than the last applied response for that entry and was
// issued after the entry's last invalidation. Late responses are reported
// to the observer with Dropped set and otherwise ignored.
//
// # Retention
//
// An entry with no subscribers is kept for Options.KeepUnusedFor (60s by
// default) so a screen that is reopened quickly reuses it, then discarded.
//
// # Notifications
//
// Subscription.Changes is a coalescing signal with capacity one. Readers
// call State after each receive; intermediate states may be skipped.
package cache
