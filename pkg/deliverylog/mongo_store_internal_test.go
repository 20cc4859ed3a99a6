package deliverylog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestPatchToSet(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 13, 9, 30, 0, 0, time.UTC)
	set := patchToSet(Patch{}.
		WithStatus(StatusRetrying).
		WithRetryCount(2).
		WithError(EntryError{Message: "timeout", Code: "ETIMEDOUT", Attempt: 2, MaxAttempts: 3}).
		WithMetadata(map[string]any{
			"ip":        "10.0.0.1",
			"transport": map[string]any{"response": "421"},
		}).
		withUpdatedAt(now))

	assert.Equal(t, bson.M{
		"status":                      StatusRetrying,
		"retryCount":                  2,
		"error":                       EntryError{Message: "timeout", Code: "ETIMEDOUT", Attempt: 2, MaxAttempts: 3},
		"updatedAt":                   now,
		"metadata.ip":                 "10.0.0.1",
		"metadata.transport.response": "421",
	}, set)
}

func TestPatchToSet_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, patchToSet(Patch{}))
}

func (p Patch) withUpdatedAt(t time.Time) Patch {
	p.UpdatedAt = t
	return p
}
