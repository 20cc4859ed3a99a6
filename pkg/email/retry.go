package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailrelay/pkg/deliverylog"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/metrics"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second
)

// Orchestrator delivers one message with bounded retries, recording every
// attempt on the message's delivery log entry.
type Orchestrator struct {
	transports TransportGetter
	log        *deliverylog.Log
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator. maxRetries below 1 and a negative
// retryDelay fall back to the defaults.
func NewOrchestrator(transports TransportGetter, log *deliverylog.Log, maxRetries int, retryDelay time.Duration, l *slog.Logger) *Orchestrator {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	if retryDelay < 0 {
		retryDelay = DefaultRetryDelay
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Orchestrator{
		transports: transports,
		log:        log,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     l.With(logger.Component("orchestrator")),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SendWithRetry makes up to maxRetries attempts, waiting retryDelay*attempt
// between them. It never returns an error: the outcome is the Result.
func (o *Orchestrator) SendWithRetry(ctx context.Context, opts *MailOptions, entry *deliverylog.Entry) Result {
	res := Result{LogID: entry.ID}
	log := o.logger.With(logger.LogID(entry.ID), logger.Template(entry.TemplateName))

	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		res.Attempts = attempt

		info, err := o.attempt(ctx, opts)
		if err == nil {
			o.advance(ctx, entry, deliverylog.Patch{}.
				WithStatus(deliverylog.StatusSent).
				WithMessageID(info.MessageID).
				WithSentAt(o.now()).
				WithMetadata(map[string]any{
					"envelope": map[string]any{"from": info.Envelope.From, "to": info.Envelope.To},
					"response": info.Response,
					"attempts": attempt,
				}))
			metrics.RecordDelivery(metrics.OutcomeSent, entry.TemplateName)
			log.InfoContext(ctx, "email sent", logger.MessageID(info.MessageID), logger.Attempt(attempt, o.maxRetries))

			res.Success = true
			res.MessageID = info.MessageID
			res.Error = nil
			return res
		}

		res.Error = newDeliveryError(err, attempt, o.maxRetries)
		status := deliverylog.StatusRetrying
		if attempt >= o.maxRetries {
			status = deliverylog.StatusFailed
		}
		o.advance(ctx, entry, deliverylog.Patch{}.
			WithStatus(status).
			WithError(res.Error.entryError()).
			WithRetryCount(attempt))
		log.WarnContext(ctx, "email attempt failed", logger.Attempt(attempt, o.maxRetries), logger.Error(err))

		if attempt >= o.maxRetries {
			break
		}
		if err := wait(ctx, o.retryDelay*time.Duration(attempt)); err != nil {
			res.Error = &DeliveryError{Message: err.Error(), Code: CodeCanceled, Attempt: attempt, MaxAttempts: o.maxRetries}
			o.advance(ctx, entry, deliverylog.Patch{}.
				WithStatus(deliverylog.StatusFailed).
				WithError(res.Error.entryError()))
			log.WarnContext(ctx, "email retries abandoned", logger.Error(err))
			break
		}
	}

	metrics.RecordDelivery(metrics.OutcomeFailed, entry.TemplateName)
	log.ErrorContext(ctx, "email delivery failed", logger.RetryCount(res.Attempts), logger.Error(res.Error))
	return res
}

func (o *Orchestrator) attempt(ctx context.Context, opts *MailOptions) (info *SendInfo, err error) {
	transport, err := o.transports.Get(ctx)
	if err != nil {
		metrics.RecordAttempt(err, 0)
		return nil, err
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, &TransportError{Message: fmt.Sprintf("transport panic: %v", r), Code: CodeMessage}
		}
		metrics.RecordAttempt(err, time.Since(start))
	}()

	info, err = transport.Send(ctx, opts)
	if err == nil && info == nil {
		info = &SendInfo{Envelope: envelopeOf(opts)}
	}
	return info, err
}

// advance applies a forward status change. The log swallows store failures
// and transitions here are always forward, so the error is only logged.
func (o *Orchestrator) advance(ctx context.Context, entry *deliverylog.Entry, patch deliverylog.Patch) {
	if err := o.log.Advance(ctx, entry, patch); err != nil {
		o.logger.ErrorContext(ctx, "delivery log not advanced", logger.LogID(entry.ID), logger.Error(err))
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
