package deliverylog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/metrics"
)

// Record describes a new delivery lineage.
type Record struct {
	TemplateID   string
	TemplateName string
	From         string
	To           []string
	CC           []string
	BCC          []string
	Subject      string
	MessageID    string
	Metadata     map[string]any
}

// Log writes delivery log entries through a Store. Creation errors are
// returned to the caller; updates are best-effort and never fail the caller.
type Log struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Log.
type Option func(*Log)

func WithLogger(l *slog.Logger) Option {
	return func(lg *Log) {
		if l != nil {
			lg.logger = l
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(lg *Log) {
		if now != nil {
			lg.now = now
		}
	}
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(fn func() string) Option {
	return func(lg *Log) {
		if fn != nil {
			lg.newID = fn
		}
	}
}

// New creates a Log backed by store.
func New(store Store, opts ...Option) *Log {
	l := &Log{
		store:  store,
		logger: logger.Discard(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(logger.Component("deliverylog"))
	return l
}

// Create persists a new entry with the given initial status (pending when empty)
// and returns a detached copy of it.
//
// The returned entry is usable even when err is non-nil: the store failed or
// panicked, but the caller may still go on and deliver the message.
func (l *Log) Create(ctx context.Context, rec Record, status Status) (*Entry, error) {
	if status == "" {
		status = StatusPending
	}
	templateName := rec.TemplateName
	if templateName == "" {
		templateName = CustomTemplate
	}
	templateID := rec.TemplateID
	if templateID == "" {
		templateID = templateName
	}

	now := l.now()
	entry := &Entry{
		ID:           l.newID(),
		TemplateID:   templateID,
		TemplateName: templateName,
		From:         rec.From,
		To:           JoinAddresses(rec.To),
		CC:           JoinAddresses(rec.CC),
		BCC:          JoinAddresses(rec.BCC),
		Subject:      rec.Subject,
		Status:       status,
		MessageID:    rec.MessageID,
		Metadata:     normalizeMetadata(rec.Metadata),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := l.safeCreate(ctx, entry); err != nil {
		metrics.LogStoreFailuresTotal.Inc()
		return entry, errors.Join(ErrStoreUnavailable, err)
	}
	return entry.Clone(), nil
}

// Update merges patch into the stored entry. Store failures (including
// panics) are logged and swallowed.
func (l *Log) Update(ctx context.Context, id string, patch Patch) {
	patch.Metadata = normalizeMetadata(patch.Metadata)
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = l.now()
	}

	if err := l.safeUpdate(ctx, id, patch); err != nil {
		metrics.LogStoreFailuresTotal.Inc()
		l.logger.WarnContext(ctx, "failed to update delivery log entry",
			logger.LogID(id),
			logger.Error(err),
		)
	}
}

// Advance validates the status transition against the caller's copy of the
// entry, applies patch to that copy and persists it with Update.
// An invalid transition is rejected without touching the store.
func (l *Log) Advance(ctx context.Context, entry *Entry, patch Patch) error {
	if patch.Status != nil && !entry.Status.CanTransitionTo(*patch.Status) {
		err := fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, entry.Status, *patch.Status)
		l.logger.ErrorContext(ctx, "rejected delivery log transition",
			logger.LogID(entry.ID),
			logger.Error(err),
		)
		return err
	}

	patch.Metadata = normalizeMetadata(patch.Metadata)
	patch.UpdatedAt = l.now()
	entry.Apply(patch)
	l.Update(ctx, entry.ID, patch)
	return nil
}

// Get returns a stored entry.
func (l *Log) Get(ctx context.Context, id string) (*Entry, error) {
	return l.store.Get(ctx, id)
}

func (l *Log) safeCreate(ctx context.Context, entry *Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrStoreUnavailable, r)
		}
	}()
	return l.store.Create(ctx, entry)
}

func (l *Log) safeUpdate(ctx context.Context, id string, patch Patch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrStoreUnavailable, r)
		}
	}()
	return l.store.Update(ctx, id, patch)
}
