package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the ISBN column.
	LayoutWideWidth = 120
)

// Pagination of the books view.
const (
	// BooksPerPage is the number of rows on one page.
	BooksPerPage = 6

	// MaxPageButtons bounds the page numbers shown in the page bar.
	MaxPageButtons = 10
)

// Timing constants.
const (
	// DefaultUIInterval is how often the header health is refreshed.
	DefaultUIInterval = time.Second

	// ActivityRefreshInterval is how often the activity view rereads the log.
	ActivityRefreshInterval = 2 * time.Second

	// ActivityLines is the number of log lines kept in the activity view.
	ActivityLines = 500

	// MutationTimeout bounds a single write request.
	MutationTimeout = 30 * time.Second
)
