package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailrelay/pkg/logger"
)

// Error codes attached to transport failures.
const (
	CodeTransportInit = "ETRANSPORT"
	CodeConnection    = "ECONNECTION"
	CodeMessage       = "EMESSAGE"
	CodeRateLimit     = "ERATELIMIT"
	CodeCanceled      = "ECANCELED"
	CodeProvider      = "EPROVIDER"
)

// Envelope is the SMTP envelope a message was sent with.
type Envelope struct {
	From string   `json:"from"`
	To   []string `json:"to"`
}

// SendInfo describes an accepted message.
type SendInfo struct {
	MessageID string
	Envelope  Envelope
	Response  string
}

// Transport hands composed messages to an outbound relay.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, opts *MailOptions) (*SendInfo, error)
	Close() error
}

// TransportError is returned by transports when a message is not accepted.
type TransportError struct {
	Message string
	Code    string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(code string, err error) *TransportError {
	return &TransportError{Message: err.Error(), Code: code, Err: err}
}

// TransportFactory constructs a ready transport.
type TransportFactory func(ctx context.Context) (Transport, error)

// TransportGetter returns the shared transport, initializing it on first use.
type TransportGetter interface {
	Get(ctx context.Context) (Transport, error)
}

// TransportProvider lazily builds one transport and reuses it for every call.
// A failed initialization is not cached: the next Get tries again.
type TransportProvider struct {
	mu        sync.Mutex
	factory   TransportFactory
	transport Transport
}

// NewTransportProvider creates a provider backed by factory.
func NewTransportProvider(factory TransportFactory) *TransportProvider {
	return &TransportProvider{factory: factory}
}

func (p *TransportProvider) Get(ctx context.Context) (Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transport != nil {
		return p.transport, nil
	}

	t, err := p.factory(ctx)
	if err != nil {
		if errors.Is(err, ErrTransportInit) {
			return nil, err
		}
		return nil, errors.Join(ErrTransportInit, err)
	}
	p.transport = t
	return t, nil
}

// Close closes the transport if one was built. The provider can be reused afterwards.
func (p *TransportProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transport == nil {
		return nil
	}
	err := p.transport.Close()
	p.transport = nil
	return err
}

// DefaultTransportFactory selects the transport from cfg: the local mailbox
// when no relay is configured or in test environments, Postmark when
// EMAIL_PROVIDER is postmark, SMTP otherwise.
func DefaultTransportFactory(cfg Config, log *slog.Logger) TransportFactory {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx context.Context) (Transport, error) {
		switch {
		case cfg.UseMailbox():
			return NewMailboxTransport(cfg.TestMailboxDir, log)
		case cfg.provider() == ProviderPostmark:
			return NewPostmarkTransport(cfg)
		default:
			return NewSMTPTransport(ctx, cfg, log)
		}
	}
}

// newMessageID builds an RFC 5322 Message-ID on the sender's domain.
func newMessageID(from string) string {
	host := "mailrelay.local"
	if addr := envelopeAddress(from); addr != "" {
		if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
			host = addr[at+1:]
		}
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), host)
}

// envelopeAddress extracts the bare address from a display-name form.
func envelopeAddress(s string) string {
	if addr, err := mail.ParseAddress(s); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(s)
}

func envelopeOf(opts *MailOptions) Envelope {
	to := opts.Recipients()
	for i, a := range to {
		to[i] = envelopeAddress(a)
	}
	return Envelope{From: envelopeAddress(opts.From), To: to}
}
