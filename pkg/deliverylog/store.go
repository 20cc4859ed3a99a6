package deliverylog

import "context"

// Store persists delivery log entries addressed by their generated id.
type Store interface {
	// Create persists a new entry. The entry ID is already set.
	Create(ctx context.Context, entry *Entry) error
	// Update applies patch to the stored entry, deep-merging Metadata.
	Update(ctx context.Context, id string, patch Patch) error
	// Get returns a copy of the stored entry.
	Get(ctx context.Context, id string) (*Entry, error)
}
