// Package logtail reads the tail of the client's log file for the activity
// view.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// bounded by the request rather than the file size. Parse turns a line
// written by the slog text or JSON handler into an Entry:
//
//	time=2025-10-08T21:01:05Z level=INFO msg="cache invalidated" tags=[Books]
//	  → Entry{Level: "INFO", Message: "cache invalidated", Attrs: [{tags [Books]}]}
//
// Anything that does not parse is kept verbatim as the message.
package logtail
