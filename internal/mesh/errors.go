package mesh

import "errors"

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("mesh: service closed")

	// ErrNoJournal is returned by NewService without a journal.
	ErrNoJournal = errors.New("mesh: journal is required")
)
