// Package ui provides the shelf terminal interface, built with Bubble Tea.
//
// # Views
//
//   - Home: catalog counts and entry points
//   - Books: paged table, six books per page, with a page bar of at most
//     ten numbers centred on the current page
//   - Book: every field of one book
//   - Book form: create and edit with a genre picker
//   - Borrow: quantity and due date for one book
//   - Borrow summary: total borrowed per book and the grand total
//   - Activity: tail of the client's own log file
//
// # Data flow
//
// Views read through catalog watches. A watch's Changes channel is turned
// into a message by waitFor; Update reads the new state and waits again.
// Watches that are replaced or closed are recognised by their channel and
// their late messages ignored. Writes run as commands and come back as
// mutationMsg; the cache invalidates the affected tags, so open watches
// refetch without the UI asking.
//
// The header shows connection health from state.Store, refreshed every
// DefaultUIInterval. T toggles the dark and light palettes through the
// theme container, which persists the choice.
package ui
