package deliverylog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/deliverylog"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, entry *deliverylog.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStore) Update(ctx context.Context, id string, patch deliverylog.Patch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, id string) (*deliverylog.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deliverylog.Entry), args.Error(1)
}

type panickingStore struct {
	*deliverylog.MemoryStore
}

func (panickingStore) Update(context.Context, string, deliverylog.Patch) error {
	panic("connection reset")
}

func (panickingStore) Create(context.Context, *deliverylog.Entry) error {
	panic("connection reset")
}

var fixedNow = time.Date(2025, 9, 13, 9, 30, 0, 0, time.UTC)

func newTestLog(store deliverylog.Store) *deliverylog.Log {
	return deliverylog.New(store,
		deliverylog.WithClock(func() time.Time { return fixedNow }),
		deliverylog.WithIDGenerator(func() string { return "log-1" }),
	)
}

func TestLog_Create(t *testing.T) {
	t.Parallel()

	store := deliverylog.NewMemoryStore()
	log := newTestLog(store)

	entry, err := log.Create(context.Background(), deliverylog.Record{
		TemplateName: "event_reminder",
		From:         "Charity <noreply@example.org>",
		To:           []string{"jane@example.com", "john@example.com"},
		CC:           []string{"team@example.org"},
		Subject:      "Reminder: AGM",
		Metadata:     map[string]any{"client.ip": "10.0.0.1"},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "log-1", entry.ID)
	assert.Equal(t, deliverylog.StatusPending, entry.Status)
	assert.Equal(t, "event_reminder", entry.TemplateID)
	assert.Equal(t, "jane@example.com, john@example.com", entry.To)
	assert.Equal(t, "team@example.org", entry.CC)
	assert.Equal(t, 0, entry.RetryCount)
	assert.Equal(t, fixedNow, entry.CreatedAt)
	assert.Equal(t, map[string]any{"client": map[string]any{"ip": "10.0.0.1"}}, entry.Metadata)

	stored, err := store.Get(context.Background(), "log-1")
	require.NoError(t, err)
	assert.Equal(t, entry, stored)
}

func TestLog_CreateCustomTemplate(t *testing.T) {
	t.Parallel()

	log := newTestLog(deliverylog.NewMemoryStore())
	entry, err := log.Create(context.Background(), deliverylog.Record{To: []string{"a@b.com"}}, deliverylog.StatusPending)
	require.NoError(t, err)

	assert.Equal(t, deliverylog.CustomTemplate, entry.TemplateName)
	assert.Equal(t, deliverylog.CustomTemplate, entry.TemplateID)
}

func TestLog_CreateStoreFailure(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("no reachable servers"))

	entry, err := newTestLog(store).Create(context.Background(), deliverylog.Record{To: []string{"a@b.com"}}, "")

	assert.ErrorIs(t, err, deliverylog.ErrStoreUnavailable)
	require.NotNil(t, entry)
	assert.Equal(t, "log-1", entry.ID)
	store.AssertExpectations(t)
}

func TestLog_CreateRecoversPanics(t *testing.T) {
	t.Parallel()

	store := panickingStore{MemoryStore: deliverylog.NewMemoryStore()}

	var (
		entry *deliverylog.Entry
		err   error
	)
	require.NotPanics(t, func() {
		entry, err = newTestLog(store).Create(context.Background(), deliverylog.Record{To: []string{"a@b.com"}}, "")
	})
	assert.ErrorIs(t, err, deliverylog.ErrStoreUnavailable)
	require.NotNil(t, entry)
	assert.Equal(t, "log-1", entry.ID)
}

func TestLog_DottedMetadataKeysNest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := deliverylog.NewMemoryStore()
	log := newTestLog(store)

	_, err := log.Create(ctx, deliverylog.Record{
		To:       []string{"a@b.com"},
		Metadata: map[string]any{"client.ip": "10.0.0.1", "client": map[string]any{"userAgent": "curl"}},
	}, "")
	require.NoError(t, err)

	log.Update(ctx, "log-1", deliverylog.Patch{}.WithMetadata(map[string]any{
		"transport.smtp.response": "250 OK",
		"..attempts":              2,
	}))

	stored, err := store.Get(ctx, "log-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"client":    map[string]any{"ip": "10.0.0.1", "userAgent": "curl"},
		"transport": map[string]any{"smtp": map[string]any{"response": "250 OK"}},
		"attempts":  2,
	}, stored.Metadata)
}

func TestLog_UpdateSwallowsStoreErrors(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	store.On("Update", mock.Anything, "log-1", mock.Anything).Return(errors.New("write conflict"))

	assert.NotPanics(t, func() {
		newTestLog(store).Update(context.Background(), "log-1", deliverylog.Patch{}.WithStatus(deliverylog.StatusSent))
	})
	store.AssertExpectations(t)
}

func TestLog_UpdateRecoversPanics(t *testing.T) {
	t.Parallel()

	store := panickingStore{MemoryStore: deliverylog.NewMemoryStore()}

	assert.NotPanics(t, func() {
		newTestLog(store).Update(context.Background(), "log-1", deliverylog.Patch{}.WithStatus(deliverylog.StatusSent))
	})
}

func TestLog_Advance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := deliverylog.NewMemoryStore()
	log := newTestLog(store)

	entry, err := log.Create(ctx, deliverylog.Record{To: []string{"a@b.com"}}, "")
	require.NoError(t, err)

	require.NoError(t, log.Advance(ctx, entry, deliverylog.Patch{}.
		WithStatus(deliverylog.StatusRetrying).
		WithRetryCount(1).
		WithError(deliverylog.EntryError{Message: "timeout", Attempt: 1, MaxAttempts: 3}).
		WithMetadata(map[string]any{"attempt": map[string]any{"1": "timeout"}})))

	require.NoError(t, log.Advance(ctx, entry, deliverylog.Patch{}.
		WithStatus(deliverylog.StatusSent).
		WithMessageID("<id@example.com>").
		WithMetadata(map[string]any{"attempt": map[string]any{"2": "ok"}})))

	stored, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, deliverylog.StatusSent, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, "<id@example.com>", stored.MessageID)
	assert.Equal(t, map[string]any{"1": "timeout", "2": "ok"}, stored.Metadata["attempt"])
	assert.Equal(t, entry.Status, stored.Status, "caller copy mirrors the stored entry")
}

func TestLog_AdvanceRejectsBackwardTransition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &MockStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	log := newTestLog(store)

	entry, err := log.Create(ctx, deliverylog.Record{To: []string{"a@b.com"}}, deliverylog.StatusTest)
	require.NoError(t, err)

	err = log.Advance(ctx, entry, deliverylog.Patch{}.WithStatus(deliverylog.StatusSent))
	assert.ErrorIs(t, err, deliverylog.ErrInvalidTransition)
	assert.Equal(t, deliverylog.StatusTest, entry.Status)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
