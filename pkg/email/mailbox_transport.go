package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailrelay/pkg/logger"
)

// MailboxTransport stores messages as files in a disposable local directory.
// It stands in for a relay during development and tests.
type MailboxTransport struct {
	dir      string
	user     string
	password string
	seq      atomic.Uint64
	logger   *slog.Logger
}

// NewMailboxTransport opens a mailbox in dir, or in a fresh temporary
// directory when dir is empty.
func NewMailboxTransport(dir string, log *slog.Logger) (*MailboxTransport, error) {
	if log == nil {
		log = logger.Discard()
	}

	var err error
	if dir == "" {
		dir, err = os.MkdirTemp("", "mailrelay-mailbox-")
	} else {
		err = os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return nil, newTransportInitError(err)
	}

	t := &MailboxTransport{
		dir:      dir,
		user:     "mailbox-" + uuid.NewString()[:8],
		password: uuid.NewString(),
		logger:   log.With(logger.Component("mailbox")),
	}
	t.logger.Warn("using disposable test mailbox, messages are not delivered",
		slog.String("dir", dir),
		slog.String("user", t.user),
		slog.String("password", t.password),
	)
	return t, nil
}

// Dir returns the mailbox directory.
func (t *MailboxTransport) Dir() string {
	return t.dir
}

type mailboxRecord struct {
	MessageID string            `json:"message_id"`
	StoredAt  string            `json:"stored_at"`
	Envelope  Envelope          `json:"envelope"`
	From      string            `json:"from"`
	To        []string          `json:"to"`
	CC        []string          `json:"cc,omitempty"`
	BCC       []string          `json:"bcc,omitempty"`
	ReplyTo   string            `json:"reply_to,omitempty"`
	Subject   string            `json:"subject"`
	Headers   map[string]string `json:"headers,omitempty"`
	Tag       string            `json:"tag,omitempty"`
	Text      string            `json:"text,omitempty"`
}

func (t *MailboxTransport) Send(ctx context.Context, opts *MailOptions) (*SendInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, newTransportError(CodeCanceled, err)
	}

	now := time.Now()
	info := &SendInfo{MessageID: newMessageID(opts.From), Envelope: envelopeOf(opts)}

	identifier := opts.Tag
	if identifier == "" {
		identifier = opts.Subject
	}
	base := fmt.Sprintf("%s_%04d_%s", now.Format("2006_01_02_150405"), t.seq.Add(1), sanitizeFilename(identifier))

	if opts.HTML != "" {
		if err := os.WriteFile(filepath.Join(t.dir, base+".html"), []byte(opts.HTML), 0o644); err != nil {
			return nil, newTransportError(CodeMessage, err)
		}
	}

	data, err := json.MarshalIndent(mailboxRecord{
		MessageID: info.MessageID,
		StoredAt:  now.Format(time.RFC3339),
		Envelope:  info.Envelope,
		From:      opts.From,
		To:        opts.To,
		CC:        opts.CC,
		BCC:       opts.BCC,
		ReplyTo:   opts.ReplyTo,
		Subject:   opts.Subject,
		Headers:   opts.Headers,
		Tag:       opts.Tag,
		Text:      opts.Text,
	}, "", "  ")
	if err != nil {
		return nil, newTransportError(CodeMessage, err)
	}
	path := filepath.Join(t.dir, base+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, newTransportError(CodeMessage, err)
	}

	info.Response = "250 Stored " + path
	t.logger.DebugContext(ctx, "message stored in mailbox",
		logger.MessageID(info.MessageID),
		slog.String("path", path),
	)
	return info, nil
}

func (t *MailboxTransport) Close() error {
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}

func newTransportInitError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransportInit, newTransportError(CodeTransportInit, err))
}
