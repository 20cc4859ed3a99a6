package submission_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/internal/submission"
)

func TestMemoryRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := submission.NewMemoryRepository()

	c := &submission.Consultation{ID: "c1", Name: "Jane"}
	require.NoError(t, repo.CreateConsultation(ctx, c))
	assert.ErrorIs(t, repo.CreateConsultation(ctx, c), submission.ErrDuplicate)

	c.Name = "mutated"
	got, err := repo.GetConsultation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Name)

	_, err = repo.GetConsultation(ctx, "missing")
	assert.ErrorIs(t, err, submission.ErrNotFound)

	q := &submission.Quote{ID: "q1", ProjectType: "App"}
	require.NoError(t, repo.CreateQuote(ctx, q))
	assert.ErrorIs(t, repo.CreateQuote(ctx, q), submission.ErrDuplicate)
	gotQ, err := repo.GetQuote(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "App", gotQ.ProjectType)

	_, err = repo.GetQuote(ctx, "c1")
	assert.ErrorIs(t, err, submission.ErrNotFound)
}
