package email

import (
	"context"
	"crypto/tls"
	"log/slog"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/ratelimiter"
)

const rateLimitKey = "smtp"

// smtpConn is one pooled relay connection. It is dialed lazily and
// redialed after MaxMessages sends or a failed send.
type smtpConn struct {
	sender gomail.SendCloser
	sent   int
}

// SMTPTransport sends through a relay over a fixed pool of connections.
type SMTPTransport struct {
	dialer      *gomail.Dialer
	pool        chan *smtpConn
	maxMessages int
	limiter     *ratelimiter.Bucket
	logger      *slog.Logger
}

// NewSMTPTransport builds the pool and verifies the relay by dialing once.
// A failed verification returns ErrTransportInit.
func NewSMTPTransport(ctx context.Context, cfg Config, log *slog.Logger) (*SMTPTransport, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("smtp"), slog.String("host", cfg.Host), slog.Int("port", cfg.Port))

	poolSize := max(cfg.PoolSize, 1)
	maxMessages := max(cfg.MaxMessages, 1)

	limiter, err := ratelimiter.NewBucket(
		ratelimiter.NewMemoryStore(),
		ratelimiter.PerInterval(max(cfg.RateLimit, 1), cfg.RateDelta),
	)
	if err != nil {
		return nil, newTransportInitError(err)
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Secure
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.TLSInsecure, //nolint:gosec // opt-in for relays with self-signed certificates
	}
	if cfg.TLSInsecure {
		log.Warn("TLS certificate verification is disabled for the SMTP relay")
	}

	if err := ctx.Err(); err != nil {
		return nil, newTransportInitError(err)
	}
	first, err := d.Dial()
	if err != nil {
		log.Error("smtp relay verification failed", logger.Error(err))
		return nil, newTransportInitError(err)
	}

	t := &SMTPTransport{
		dialer:      d,
		pool:        make(chan *smtpConn, poolSize),
		maxMessages: maxMessages,
		limiter:     limiter,
		logger:      log,
	}
	t.pool <- &smtpConn{sender: first}
	for range poolSize - 1 {
		t.pool <- &smtpConn{}
	}

	log.Info("smtp transport ready", slog.Int("pool_size", poolSize), slog.Int("max_messages", maxMessages))
	return t, nil
}

func (t *SMTPTransport) Send(ctx context.Context, opts *MailOptions) (*SendInfo, error) {
	if err := t.limiter.Wait(ctx, rateLimitKey); err != nil {
		return nil, newTransportError(CodeRateLimit, err)
	}

	var conn *smtpConn
	select {
	case conn = <-t.pool:
	case <-ctx.Done():
		return nil, newTransportError(CodeCanceled, ctx.Err())
	}
	defer func() { t.pool <- conn }()

	if conn.sender != nil && conn.sent >= t.maxMessages {
		t.closeConn(conn)
	}
	if conn.sender == nil {
		sender, err := t.dialer.Dial()
		if err != nil {
			return nil, newTransportError(CodeConnection, err)
		}
		conn.sender = sender
		conn.sent = 0
	}

	messageID := newMessageID(opts.From)
	if err := gomail.Send(conn.sender, buildMessage(opts, messageID)); err != nil {
		t.closeConn(conn)
		return nil, newTransportError(CodeMessage, err)
	}
	conn.sent++

	return &SendInfo{
		MessageID: messageID,
		Envelope:  envelopeOf(opts),
		Response:  "250 Message accepted, connection message " + strconv.Itoa(conn.sent),
	}, nil
}

// Close closes every pooled connection. It waits for in-flight sends.
func (t *SMTPTransport) Close() error {
	conns := make([]*smtpConn, 0, cap(t.pool))
	for range cap(t.pool) {
		conns = append(conns, <-t.pool)
	}
	for _, c := range conns {
		t.closeConn(c)
		t.pool <- c
	}
	return nil
}

func (t *SMTPTransport) closeConn(c *smtpConn) {
	if c.sender == nil {
		return
	}
	if err := c.sender.Close(); err != nil {
		t.logger.Debug("failed to close smtp connection", logger.Error(err))
	}
	c.sender = nil
	c.sent = 0
}

func buildMessage(opts *MailOptions, messageID string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", opts.From)
	m.SetHeader("To", opts.To...)
	if len(opts.CC) > 0 {
		m.SetHeader("Cc", opts.CC...)
	}
	if len(opts.BCC) > 0 {
		m.SetHeader("Bcc", opts.BCC...)
	}
	if opts.ReplyTo != "" {
		m.SetHeader("Reply-To", opts.ReplyTo)
	}
	m.SetHeader("Subject", opts.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetDateHeader("Date", time.Now())
	for k, v := range opts.Headers {
		m.SetHeader(k, v)
	}

	switch {
	case opts.Text != "" && opts.HTML != "":
		m.SetBody("text/plain", opts.Text)
		m.AddAlternative("text/html", opts.HTML)
	case opts.HTML != "":
		m.SetBody("text/html", opts.HTML)
	default:
		m.SetBody("text/plain", opts.Text)
	}
	return m
}
