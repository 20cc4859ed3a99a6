package submission

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/mailrelay/pkg/async"
	"github.com/dmitrymomot/mailrelay/pkg/binder"
	"github.com/dmitrymomot/mailrelay/pkg/clientip"
	"github.com/dmitrymomot/mailrelay/pkg/email"
	"github.com/dmitrymomot/mailrelay/pkg/handler"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/requestid"
	"github.com/dmitrymomot/mailrelay/pkg/validator"
)

// Notifier sends the emails for a stored submission. *email.Mailer implements it.
type Notifier interface {
	SendConsultationNotification(ctx context.Context, c email.Consultation) (email.Result, error)
	SendQuoteNotification(ctx context.Context, q email.Quote) (email.Result, error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithClock overrides time.Now for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithIDGenerator overrides the UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(h *Handler) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// WithMiddleware adds middleware in front of the submission routes.
func WithMiddleware(mws ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.middleware = append(h.middleware, mws...)
	}
}

// Handler serves the submission endpoints.
type Handler struct {
	repo       Repository
	notifier   Notifier
	log        *slog.Logger
	now        func() time.Time
	newID      func() string
	middleware []func(http.Handler) http.Handler
}

func NewHandler(repo Repository, notifier Notifier, opts ...Option) *Handler {
	h := &Handler{
		repo:     repo,
		notifier: notifier,
		log:      logger.Discard(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("submission"))
	return h
}

// Created is the body of a successful submission.
type Created struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Router mounts POST /consultations and POST /quotes.
func (h *Handler) Router() chi.Router {
	opts := []handler.Option{
		handler.WithBinders(binder.JSON()),
		handler.WithErrorHandler(handler.JSONErrorHandler(h.log)),
	}

	r := chi.NewRouter()
	r.Use(h.middleware...)
	r.Post("/consultations", handler.Wrap[ConsultationRequest](h.createConsultation, opts...))
	r.Post("/quotes", handler.Wrap[QuoteRequest](h.createQuote, opts...))
	return r
}

func (h *Handler) createConsultation(ctx handler.Context, req ConsultationRequest) handler.Response {
	if err := req.Validate(); err != nil {
		return handler.JSONError(toHTTPValidation(err))
	}

	c := &Consultation{
		ID:            h.newID(),
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Organization:  req.Organization,
		Service:       req.Service,
		PreferredDate: req.PreferredDate,
		Message:       req.Message,
		Client:        clientOf(ctx.Request()),
		CreatedAt:     h.now().UTC(),
	}
	if err := h.repo.CreateConsultation(ctx, c); err != nil {
		h.log.ErrorContext(ctx, "failed to store consultation", logger.Error(err))
		return handler.JSONError(handler.ErrServiceUnavailable)
	}

	notify(ctx, h.log, "consultation", c.ID, c.notification(), h.notifier.SendConsultationNotification)
	return handler.JSON(Created{ID: c.ID, Status: "received"}, handler.WithJSONStatus(http.StatusCreated))
}

func (h *Handler) createQuote(ctx handler.Context, req QuoteRequest) handler.Response {
	if err := req.Validate(); err != nil {
		return handler.JSONError(toHTTPValidation(err))
	}

	q := &Quote{
		ID:           h.newID(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Organization: req.Organization,
		ProjectType:  req.ProjectType,
		Budget:       req.Budget,
		Timeline:     req.Timeline,
		Description:  req.Description,
		Client:       clientOf(ctx.Request()),
		CreatedAt:    h.now().UTC(),
	}
	if err := h.repo.CreateQuote(ctx, q); err != nil {
		h.log.ErrorContext(ctx, "failed to store quote", logger.Error(err))
		return handler.JSONError(handler.ErrServiceUnavailable)
	}

	notify(ctx, h.log, "quote", q.ID, q.notification(), h.notifier.SendQuoteNotification)
	return handler.JSON(Created{ID: q.ID, Status: "received"}, handler.WithJSONStatus(http.StatusCreated))
}

// notify runs send detached from the request so a client disconnect does not
// abort delivery. Delivery failures are already recorded in the delivery log;
// only validation and render problems are logged here.
func notify[T any](ctx context.Context, log *slog.Logger, kind, id string, v T, send func(context.Context, T) (email.Result, error)) {
	async.Detach(ctx, v, func(ctx context.Context, v T) (struct{}, error) {
		res, err := send(ctx, v)
		switch {
		case err != nil:
			log.ErrorContext(ctx, "submission notification not sent",
				slog.String("kind", kind), slog.String("id", id), logger.Error(err))
		case !res.Success:
			log.WarnContext(ctx, "submission notification failed",
				slog.String("kind", kind), slog.String("id", id), logger.LogID(res.LogID))
		}
		return struct{}{}, err
	})
}

func clientOf(r *http.Request) Client {
	ip := clientip.FromContext(r.Context())
	if ip == "" {
		ip = clientip.GetIP(r)
	}
	return Client{
		IP:        ip,
		UserAgent: r.UserAgent(),
		RequestID: requestid.FromContext(r.Context()),
	}
}

func toHTTPValidation(err error) error {
	ve := validator.Extract(err)
	if ve == nil {
		return errors.Join(handler.ErrBadRequest, err)
	}
	return handler.ValidationError(ve.Map())
}
