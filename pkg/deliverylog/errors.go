package deliverylog

import "errors"

var (
	ErrEntryNotFound     = errors.New("deliverylog: entry not found")
	ErrDuplicateEntry    = errors.New("deliverylog: entry already exists")
	ErrInvalidTransition = errors.New("deliverylog: invalid status transition")
	ErrStoreUnavailable  = errors.New("deliverylog: store unavailable")
)
