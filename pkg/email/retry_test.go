package email_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/deliverylog"
	"github.com/dmitrymomot/mailrelay/pkg/email"
)

func newLineage(t *testing.T, store deliverylog.Store) (*deliverylog.Log, *deliverylog.Entry) {
	t.Helper()
	log := deliverylog.New(store)
	entry, err := log.Create(context.Background(), deliverylog.Record{
		To:      []string{"a@b.com"},
		Subject: "Hi",
	}, deliverylog.StatusPending)
	require.NoError(t, err)
	return log, entry
}

var plainOptions = email.MailOptions{
	From:    "noreply@example.org",
	To:      []string{"a@b.com"},
	Subject: "Hi",
	Text:    "Hello",
}

func TestOrchestrator_AlwaysFailingTransport(t *testing.T) {
	t.Parallel()

	store := deliverylog.NewMemoryStore()
	log, entry := newLineage(t, store)
	tr := &MockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(nil, errRelay)

	o := email.NewOrchestrator(staticProvider(tr), log, 3, 0, nil)
	opts := plainOptions
	res := o.SendWithRetry(context.Background(), &opts, entry)

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, entry.ID, res.LogID)
	require.NotNil(t, res.Error)
	assert.Equal(t, email.CodeConnection, res.Error.Code)
	assert.Equal(t, "connection refused", res.Error.Message)
	assert.Equal(t, 3, res.Error.Attempt)
	assert.Equal(t, 3, res.Error.MaxAttempts)
	assert.ErrorIs(t, res.Err(), email.ErrDeliveryFailed)
	tr.AssertNumberOfCalls(t, "Send", 3)

	stored := storedEntry(t, store, entry.ID)
	assert.Equal(t, deliverylog.StatusFailed, stored.Status)
	assert.Equal(t, 3, stored.RetryCount)
	require.NotNil(t, stored.Error)
	assert.Equal(t, 3, stored.Error.Attempt)
	assert.Empty(t, stored.MessageID)
}

func TestOrchestrator_SuccessStopsRetrying(t *testing.T) {
	t.Parallel()

	store := deliverylog.NewMemoryStore()
	log, entry := newLineage(t, store)
	tr := &MockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(nil, errRelay).Once()
	tr.On("Send", mock.Anything, mock.Anything).Return(sentInfo("<m1@example.org>"), nil).Once()

	o := email.NewOrchestrator(staticProvider(tr), log, 3, 0, nil)
	opts := plainOptions
	res := o.SendWithRetry(context.Background(), &opts, entry)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "<m1@example.org>", res.MessageID)
	assert.Nil(t, res.Error)
	tr.AssertNumberOfCalls(t, "Send", 2)

	stored := storedEntry(t, store, entry.ID)
	assert.Equal(t, deliverylog.StatusSent, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, "<m1@example.org>", stored.MessageID)
	assert.NotNil(t, stored.SentAt)
	assert.Equal(t, 2, stored.Metadata["attempts"])
	assert.Equal(t, "250 OK queued", stored.Metadata["response"])
	assert.Equal(t, map[string]any{"from": "noreply@example.org", "to": []string{"a@b.com"}}, stored.Metadata["envelope"])
}

func TestOrchestrator_SuccessAfterRetriesClearsError(t *testing.T) {
	t.Parallel()

	store := deliverylog.NewMemoryStore()
	log, entry := newLineage(t, store)
	tr := &MockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(nil, errRelay).Twice()
	tr.On("Send", mock.Anything, mock.Anything).Return(sentInfo("<m3@example.org>"), nil).Once()

	o := email.NewOrchestrator(staticProvider(tr), log, 3, 0, nil)
	opts := plainOptions
	res := o.SendWithRetry(context.Background(), &opts, entry)

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "<m3@example.org>", res.MessageID)
	assert.Nil(t, res.Error)
	assert.NoError(t, res.Err())

	stored := storedEntry(t, store, entry.ID)
	assert.Equal(t, deliverylog.StatusSent, stored.Status)
	assert.Equal(t, 2, stored.RetryCount)
	require.NotNil(t, stored.Error)
	assert.Equal(t, 2, stored.Error.Attempt)
}

func TestOrchestrator_LogFailuresDoNotPropagate(t *testing.T) {
	t.Parallel()

	for _, panics := range []bool{false, true} {
		store := failingUpdateStore{MemoryStore: deliverylog.NewMemoryStore(), panics: panics}

		t.Run("success", func(t *testing.T) {
			log, entry := newLineage(t, store)
			tr := &MockTransport{}
			tr.On("Send", mock.Anything, mock.Anything).Return(sentInfo("<ok@example.org>"), nil)

			opts := plainOptions
			var res email.Result
			assert.NotPanics(t, func() {
				res = email.NewOrchestrator(staticProvider(tr), log, 3, 0, nil).SendWithRetry(context.Background(), &opts, entry)
			})
			assert.True(t, res.Success)
			assert.Equal(t, "<ok@example.org>", res.MessageID)
		})

		t.Run("failure", func(t *testing.T) {
			log, entry := newLineage(t, store)
			tr := &MockTransport{}
			tr.On("Send", mock.Anything, mock.Anything).Return(nil, errRelay)

			opts := plainOptions
			var res email.Result
			assert.NotPanics(t, func() {
				res = email.NewOrchestrator(staticProvider(tr), log, 3, 0, nil).SendWithRetry(context.Background(), &opts, entry)
			})
			assert.False(t, res.Success)
			assert.Equal(t, 3, res.Attempts)
			tr.AssertNumberOfCalls(t, "Send", 3)
		})
	}
}

func TestOrchestrator_TransportInitFailureIsRetried(t *testing.T) {
	t.Parallel()

	store := deliverylog.NewMemoryStore()
	log, entry := newLineage(t, store)

	var builds atomic.Int32
	provider := email.NewTransportProvider(func(context.Context) (email.Transport, error) {
		builds.Add(1)
		return nil, errors.New("dial tcp: connection refused")
	})

	opts := plainOptions
	res := email.NewOrchestrator(provider, log, 3, 0, nil).SendWithRetry(context.Background(), &opts, entry)

	assert.False(t, res.Success)
	assert.Equal(t, int32(3), builds.Load())
	require.NotNil(t, res.Error)
	assert.Equal(t, email.CodeTransportInit, res.Error.Code)
	assert.Equal(t, deliverylog.StatusFailed, storedEntry(t, store, entry.ID).Status)
}

func TestOrchestrator_TransportPanicIsAFailedAttempt(t *testing.T) {
	t.Parallel()

	store := deliverylog.NewMemoryStore()
	log, entry := newLineage(t, store)
	tr := &MockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Panic("nil pointer").Once()
	tr.On("Send", mock.Anything, mock.Anything).Return(sentInfo("<m2@example.org>"), nil).Once()

	opts := plainOptions
	res := email.NewOrchestrator(staticProvider(tr), log, 3, 0, nil).SendWithRetry(context.Background(), &opts, entry)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
}

func TestOrchestrator_LinearBackoff(t *testing.T) {
	t.Parallel()

	log, entry := newLineage(t, deliverylog.NewMemoryStore())
	tr := &MockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(nil, errRelay)

	const delay = 20 * time.Millisecond
	opts := plainOptions
	start := time.Now()
	res := email.NewOrchestrator(staticProvider(tr), log, 3, delay, nil).SendWithRetry(context.Background(), &opts, entry)

	assert.False(t, res.Success)
	assert.GreaterOrEqual(t, time.Since(start), delay+2*delay)
}

func TestOrchestrator_CancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	store := deliverylog.NewMemoryStore()
	log, entry := newLineage(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &MockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil, errRelay)

	opts := plainOptions
	res := email.NewOrchestrator(staticProvider(tr), log, 3, time.Hour, nil).SendWithRetry(ctx, &opts, entry)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	require.NotNil(t, res.Error)
	assert.Equal(t, email.CodeCanceled, res.Error.Code)
	tr.AssertNumberOfCalls(t, "Send", 1)

	stored := storedEntry(t, store, entry.ID)
	assert.Equal(t, deliverylog.StatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
}

func TestNewOrchestrator_Defaults(t *testing.T) {
	t.Parallel()

	log, entry := newLineage(t, deliverylog.NewMemoryStore())
	tr := &MockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(nil, errRelay)

	// A zero retry count falls back to the default of three attempts.
	opts := plainOptions
	res := email.NewOrchestrator(staticProvider(tr), log, 0, 0, nil).SendWithRetry(context.Background(), &opts, entry)
	assert.Equal(t, email.DefaultMaxRetries, res.Attempts)
}
