package data

import "errors"

var (
	ErrNotFound = errors.New("attachment not found")
	// ErrUnreadable reports a payload that could not be read for fingerprinting.
	ErrUnreadable = errors.New("payload unreadable")
	// ErrPatternMismatch is recorded when a name or path does not parse; the
	// affected stage leaves its input unchanged.
	ErrPatternMismatch  = errors.New("pattern mismatch")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDeletionBlocked  = errors.New("deletion blocked: file is still referenced")
	ErrInvalidName      = errors.New("invalid file name")
)
