package email

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrymomot/mailrelay/pkg/email/templates"
)

// MailOptions is the full set of transport parameters for one message.
type MailOptions struct {
	From    string
	To      []string
	CC      []string
	BCC     []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	Headers map[string]string
	// Tag labels the message for providers that support it.
	Tag string
	// Metadata is caller context stored on the delivery log entry only.
	Metadata map[string]any
}

// FixedHeaders returns the headers injected into every message to suppress
// out-of-office and auto-reply responses.
func FixedHeaders() map[string]string {
	return map[string]string{
		"X-Auto-Response-Suppress": "OOF, AutoReply",
		"Auto-Submitted":           "auto-generated",
		"Precedence":               "bulk",
	}
}

// Validate reports ErrInvalidEmailOptions when there is no recipient, or when
// neither an HTML body nor a subject with a text body is present.
func (o MailOptions) Validate() error {
	if len(compact(o.To)) == 0 {
		return fmt.Errorf("%w: recipient is required", ErrInvalidEmailOptions)
	}
	hasHTML := strings.TrimSpace(o.HTML) != ""
	hasText := strings.TrimSpace(o.Subject) != "" && strings.TrimSpace(o.Text) != ""
	if !hasHTML && !hasText {
		return fmt.Errorf("%w: html or subject and text are required", ErrInvalidEmailOptions)
	}
	return nil
}

// Recipients returns every envelope recipient.
func (o MailOptions) Recipients() []string {
	out := make([]string, 0, len(o.To)+len(o.CC)+len(o.BCC))
	out = append(out, compact(o.To)...)
	out = append(out, compact(o.CC)...)
	return append(out, compact(o.BCC)...)
}

// ResolveMailOptions merges opts over the configured defaults.
// Headers are built from FixedHeaders with caller headers on top, so callers
// can still override a fixed header. From and ReplyTo fall back to the
// configured sender and support address, and a missing text body is derived
// from the HTML.
func ResolveMailOptions(cfg Config, opts MailOptions) MailOptions {
	out := MailOptions{
		From:     strings.TrimSpace(opts.From),
		To:       compact(opts.To),
		CC:       compact(opts.CC),
		BCC:      compact(opts.BCC),
		ReplyTo:  strings.TrimSpace(opts.ReplyTo),
		Subject:  opts.Subject,
		HTML:     opts.HTML,
		Text:     opts.Text,
		Headers:  FixedHeaders(),
		Tag:      opts.Tag,
		Metadata: maps.Clone(opts.Metadata),
	}
	maps.Copy(out.Headers, opts.Headers)

	if out.From == "" {
		out.From = cfg.DefaultFrom()
	}
	if out.ReplyTo == "" {
		out.ReplyTo = cfg.SupportEmail
	}
	if strings.TrimSpace(out.Text) == "" && out.HTML != "" {
		out.Text = templates.StripHTML(out.HTML)
	}
	return out
}

func compact(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return slices.Clip(out)
}
