package email

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailrelay/pkg/async"
	"github.com/dmitrymomot/mailrelay/pkg/deliverylog"
	"github.com/dmitrymomot/mailrelay/pkg/email/templates"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/metrics"
)

// FailureEvent is emitted when a lineage exhausts its retries.
type FailureEvent struct {
	LogID        string
	TemplateName string
	To           []string
	Subject      string
	Attempts     int
	Error        *DeliveryError
	FailedAt     time.Time
}

// FailureNotifier consumes terminal delivery failures. Notify must not block.
type FailureNotifier interface {
	Notify(FailureEvent)
}

// Mailer renders, logs and delivers transactional email.
type Mailer struct {
	cfg          Config
	registry     *templates.Registry
	log          *deliverylog.Log
	transports   TransportGetter
	orchestrator *Orchestrator
	notifier     FailureNotifier
	logger       *slog.Logger
	now          func() time.Time

	maxRetries int
	retryDelay time.Duration
}

// Option configures a Mailer.
type Option func(*Mailer)

func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRegistry replaces the built-in template registry.
func WithRegistry(r *templates.Registry) Option {
	return func(m *Mailer) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithTransport sets the transport source. By default transports are built
// from the config by DefaultTransportFactory.
func WithTransport(t TransportGetter) Option {
	return func(m *Mailer) {
		if t != nil {
			m.transports = t
		}
	}
}

// WithRetryPolicy overrides EMAIL_MAX_RETRIES and EMAIL_RETRY_DELAY.
func WithRetryPolicy(maxRetries int, retryDelay time.Duration) Option {
	return func(m *Mailer) {
		m.maxRetries = maxRetries
		m.retryDelay = retryDelay
	}
}

// WithFailureNotifier sets the consumer of terminal failures.
func WithFailureNotifier(n FailureNotifier) Option {
	return func(m *Mailer) {
		m.notifier = n
	}
}

// WithClock overrides the time source used for synthetic message ids.
func WithClock(now func() time.Time) Option {
	return func(m *Mailer) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Mailer that records deliveries in log.
func New(cfg Config, log *deliverylog.Log, opts ...Option) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("%w: delivery log is required", ErrInvalidConfig)
	}

	m := &Mailer{
		cfg:        cfg,
		registry:   templates.Default(),
		log:        log,
		logger:     logger.Discard(),
		now:        time.Now,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("mailer"))
	if m.transports == nil {
		m.transports = NewTransportProvider(DefaultTransportFactory(cfg, m.logger))
	}
	m.orchestrator = NewOrchestrator(m.transports, log, m.maxRetries, m.retryDelay, m.logger)
	return m, nil
}

// SetFailureNotifier sets the consumer of terminal failures.
// It must be called before the mailer is shared between goroutines.
func (m *Mailer) SetFailureNotifier(n FailureNotifier) {
	m.notifier = n
}

// Close releases the transport if the transport source owns one.
func (m *Mailer) Close() error {
	if c, ok := m.transports.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Config returns the mailer configuration.
func (m *Mailer) Config() Config {
	return m.cfg
}

// SendTemplatedEmail renders the named template and delivers it.
// Render and validation failures are returned as errors before any log entry
// is created. Delivery failures are reported in the Result.
func (m *Mailer) SendTemplatedEmail(ctx context.Context, name string, data map[string]any, opts MailOptions) (Result, error) {
	d := templates.Data(data)
	if d.String(templates.AppNameKey) == "" {
		d = d.With(templates.AppNameKey, m.cfg.AppName)
	}

	rendered, err := m.registry.Render(ctx, name, d)
	if err != nil {
		return Result{}, err
	}

	if opts.Subject == "" {
		opts.Subject = rendered.Subject
	}
	if opts.HTML == "" {
		opts.HTML = rendered.HTML
	}
	if opts.Text == "" {
		opts.Text = rendered.Text
	}
	if opts.Tag == "" {
		opts.Tag = name
	}
	return m.deliver(ctx, name, opts)
}

// SendEmail delivers a message without a template. It returns
// ErrInvalidEmailOptions before any log entry is created when opts has no
// recipient or no content.
func (m *Mailer) SendEmail(ctx context.Context, opts MailOptions) (Result, error) {
	return m.deliver(ctx, deliverylog.CustomTemplate, opts)
}

// SendEmailAsync runs SendEmail detached from ctx cancellation.
func (m *Mailer) SendEmailAsync(ctx context.Context, opts MailOptions) *async.Future[Result] {
	return async.Detach(ctx, opts, m.SendEmail)
}

// SendTemplatedEmailAsync runs SendTemplatedEmail detached from ctx cancellation.
func (m *Mailer) SendTemplatedEmailAsync(ctx context.Context, name string, data map[string]any, opts MailOptions) *async.Future[Result] {
	return async.Detach(ctx, opts, func(ctx context.Context, opts MailOptions) (Result, error) {
		return m.SendTemplatedEmail(ctx, name, data, opts)
	})
}

// Go runs fn with the mailer detached from ctx cancellation, for callers that
// compose several sends, such as the domain helpers, off the request path.
func (m *Mailer) Go(ctx context.Context, fn func(ctx context.Context, m *Mailer) (Result, error)) *async.Future[Result] {
	return async.Detach(ctx, m, fn)
}

func (m *Mailer) deliver(ctx context.Context, templateName string, opts MailOptions) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	resolved := ResolveMailOptions(m.cfg, opts)
	log := m.logger.With(logger.Template(templateName), logger.Recipient(deliverylog.JoinAddresses(resolved.To)))

	rec := deliverylog.Record{
		TemplateID:   templateName,
		TemplateName: templateName,
		From:         resolved.From,
		To:           resolved.To,
		CC:           resolved.CC,
		BCC:          resolved.BCC,
		Subject:      resolved.Subject,
		Metadata:     resolved.Metadata,
	}

	if m.cfg.TestMode() {
		messageID := fmt.Sprintf("test-%d", m.now().UnixNano())
		rec.MessageID = messageID
		entry, err := m.log.Create(ctx, rec, deliverylog.StatusTest)
		if err != nil {
			log.WarnContext(ctx, "delivery log entry not stored", logger.Error(err))
		}
		metrics.RecordDelivery(metrics.OutcomeTest, templateName)
		log.InfoContext(ctx, "test mode, email not sent", logger.LogID(entry.ID), logger.MessageID(messageID))
		return Result{Success: true, TestMode: true, MessageID: messageID, LogID: entry.ID}, nil
	}

	entry, err := m.log.Create(ctx, rec, deliverylog.StatusPending)
	if err != nil {
		log.WarnContext(ctx, "delivery log entry not stored", logger.Error(err))
	}

	res := m.orchestrator.SendWithRetry(ctx, &resolved, entry)
	if !res.Success {
		m.reportFailure(ctx, entry, resolved, res)
	}
	return res, nil
}

func (m *Mailer) reportFailure(ctx context.Context, entry *deliverylog.Entry, opts MailOptions, res Result) {
	if m.notifier == nil || alertsSuppressed(ctx) || !m.cfg.Env().IsProductionLike() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "failure notifier panicked", logger.LogID(entry.ID), logger.Error(fmt.Errorf("%v", r)))
		}
	}()
	m.notifier.Notify(FailureEvent{
		LogID:        entry.ID,
		TemplateName: entry.TemplateName,
		To:           opts.To,
		Subject:      opts.Subject,
		Attempts:     res.Attempts,
		Error:        res.Error,
		FailedAt:     m.now().UTC(),
	})
}

type suppressAlertsKey struct{}

// withoutFailureAlerts marks ctx so failures of sends made with it do not
// produce failure events. The admin notifier uses it for its own mail.
func withoutFailureAlerts(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressAlertsKey{}, true)
}

func alertsSuppressed(ctx context.Context) bool {
	v, _ := ctx.Value(suppressAlertsKey{}).(bool)
	return v
}

// IsValidationError reports whether err was caused by invalid input rather
// than a delivery problem.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEmailOptions) || errors.Is(err, ErrUnknownTemplate)
}
