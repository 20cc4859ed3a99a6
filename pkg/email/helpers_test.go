package email_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/deliverylog"
	"github.com/dmitrymomot/mailrelay/pkg/email"
)

// MockTransport is a mock implementation of email.Transport.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, opts *email.MailOptions) (*email.SendInfo, error) {
	args := m.Called(ctx, opts)
	info, _ := args.Get(0).(*email.SendInfo)
	return info, args.Error(1)
}

func (m *MockTransport) Close() error {
	return m.Called().Error(0)
}

// sentOptions returns the options passed to the n-th Send call.
func (m *MockTransport) sentOptions(t *testing.T, n int) *email.MailOptions {
	t.Helper()
	var sends []mock.Call
	for _, c := range m.Calls {
		if c.Method == "Send" {
			sends = append(sends, c)
		}
	}
	require.Greater(t, len(sends), n)
	return sends[n].Arguments.Get(1).(*email.MailOptions)
}

// MockStore is a mock implementation of deliverylog.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, entry *deliverylog.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockStore) Update(ctx context.Context, id string, patch deliverylog.Patch) error {
	return m.Called(ctx, id, patch).Error(0)
}

func (m *MockStore) Get(ctx context.Context, id string) (*deliverylog.Entry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*deliverylog.Entry)
	return entry, args.Error(1)
}

// failingUpdateStore accepts creates and fails every update.
type failingUpdateStore struct {
	*deliverylog.MemoryStore
	panics bool
}

func (s failingUpdateStore) Update(context.Context, string, deliverylog.Patch) error {
	if s.panics {
		panic("store connection lost")
	}
	return errors.New("store unavailable")
}

// recordingNotifier collects failure events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []email.FailureEvent
}

func (n *recordingNotifier) Notify(ev email.FailureEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []email.FailureEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]email.FailureEvent(nil), n.events...)
}

var errRelay = &email.TransportError{Message: "connection refused", Code: email.CodeConnection}

func sentInfo(id string) *email.SendInfo {
	return &email.SendInfo{
		MessageID: id,
		Envelope:  email.Envelope{From: "noreply@example.org", To: []string{"a@b.com"}},
		Response:  "250 OK queued",
	}
}

func testConfig(env string) email.Config {
	return email.Config{
		Host:         "smtp.example.org",
		Port:         587,
		PoolSize:     1,
		MaxMessages:  10,
		RateLimit:    10,
		RateDelta:    time.Second,
		From:         "noreply@example.org",
		SupportEmail: "support@example.org",
		AdminEmail:   "admin@example.org",
		AppName:      "Hope Foundation",
		Environment:  env,
		MaxRetries:   3,
		RetryDelay:   0,
		Provider:     email.ProviderSMTP,
	}
}

func staticProvider(tr email.Transport) *email.TransportProvider {
	return email.NewTransportProvider(func(context.Context) (email.Transport, error) {
		return tr, nil
	})
}

func newTestMailer(t *testing.T, cfg email.Config, store deliverylog.Store, tr email.Transport, opts ...email.Option) *email.Mailer {
	t.Helper()
	opts = append([]email.Option{email.WithTransport(staticProvider(tr))}, opts...)
	m, err := email.New(cfg, deliverylog.New(store), opts...)
	require.NoError(t, err)
	return m
}

func storedEntry(t *testing.T, store deliverylog.Store, id string) *deliverylog.Entry {
	t.Helper()
	entry, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return entry
}
