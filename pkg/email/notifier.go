package email

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/mailrelay/pkg/email/templates"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/metrics"
)

// TemplatedSender sends templated email. *Mailer implements it.
type TemplatedSender interface {
	SendTemplatedEmail(ctx context.Context, name string, data map[string]any, opts MailOptions) (Result, error)
}

const defaultNotifierBuffer = 64

// AdminNotifier emails the administrator about failed deliveries.
// Events are queued and sent by a background consumer; when the queue is
// full new events are dropped.
type AdminNotifier struct {
	sender TemplatedSender
	to     string
	events chan FailureEvent
	done   chan struct{}
	logger *slog.Logger

	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NotifierOption configures an AdminNotifier.
type NotifierOption func(*AdminNotifier)

// WithNotifierBuffer sets the queue size.
func WithNotifierBuffer(size int) NotifierOption {
	return func(n *AdminNotifier) {
		if size > 0 {
			n.events = make(chan FailureEvent, size)
		}
	}
}

func WithNotifierLogger(l *slog.Logger) NotifierOption {
	return func(n *AdminNotifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewAdminNotifier creates a notifier that sends alerts to adminEmail through sender.
func NewAdminNotifier(sender TemplatedSender, adminEmail string, opts ...NotifierOption) *AdminNotifier {
	n := &AdminNotifier{
		sender: sender,
		to:     adminEmail,
		events: make(chan FailureEvent, defaultNotifierBuffer),
		done:   make(chan struct{}),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(logger.Component("admin_notifier"))
	return n
}

// Notify queues ev without blocking.
func (n *AdminNotifier) Notify(ev FailureEvent) {
	select {
	case <-n.done:
		n.drop(ev, "notifier closed")
		return
	default:
	}

	select {
	case n.events <- ev:
	default:
		n.drop(ev, "queue full")
	}
}

// Start runs the consumer until ctx is done or Close is called.
func (n *AdminNotifier) Start(ctx context.Context) {
	n.startOnce.Do(func() {
		n.wg.Add(1)
		go n.run(ctx)
	})
}

// Close stops the consumer after it has sent the queued events.
func (n *AdminNotifier) Close() error {
	n.closeOnce.Do(func() { close(n.done) })
	n.wg.Wait()
	return nil
}

func (n *AdminNotifier) run(ctx context.Context) {
	defer n.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			for {
				select {
				case ev := <-n.events:
					n.send(ctx, ev)
				default:
					return
				}
			}
		case ev := <-n.events:
			n.send(ctx, ev)
		}
	}
}

func (n *AdminNotifier) send(ctx context.Context, ev FailureEvent) {
	log := n.logger.With(logger.LogID(ev.LogID))
	if n.to == "" {
		log.WarnContext(ctx, "no admin recipient configured, failure alert skipped")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "failure alert panicked", logger.Error(fmt.Errorf("%v", r)))
		}
	}()

	data := map[string]any{
		"logId":        ev.LogID,
		"templateName": ev.TemplateName,
		"to":           strings.Join(ev.To, ", "),
		"subject":      ev.Subject,
		"attempts":     strconv.Itoa(ev.Attempts),
		"failedAt":     ev.FailedAt.Format(time.RFC1123),
	}
	if ev.Error != nil {
		data["error"] = ev.Error.Message
		data["errorCode"] = ev.Error.Code
	}

	sendCtx := withoutFailureAlerts(context.WithoutCancel(ctx))
	res, err := n.sender.SendTemplatedEmail(sendCtx, templates.DeliveryFailure, data, MailOptions{To: []string{n.to}})
	switch {
	case err != nil:
		log.ErrorContext(ctx, "failure alert not sent", logger.Error(err))
	case !res.Success:
		log.ErrorContext(ctx, "failure alert not delivered", logger.Error(res.Err()))
	default:
		log.InfoContext(ctx, "failure alert sent", logger.MessageID(res.MessageID))
	}
}

func (n *AdminNotifier) drop(ev FailureEvent, reason string) {
	metrics.AdminAlertsDroppedTotal.Inc()
	n.logger.Warn("failure alert dropped", logger.LogID(ev.LogID), slog.String("reason", reason))
}
