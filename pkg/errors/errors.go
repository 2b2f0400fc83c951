package errors

import "errors"

var (
	// ErrOptimisticLock the row was modified by someone else since it was read
	ErrOptimisticLock = errors.New("record was modified by another request, reload and retry")

	// ErrStateConflict the row is no longer in the moderation state the caller expected
	ErrStateConflict = errors.New("record is no longer in the expected moderation state")
)
