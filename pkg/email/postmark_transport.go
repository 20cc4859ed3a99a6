package email

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mrz1836/postmark"
)

// PostmarkTransport sends through the Postmark transactional API.
type PostmarkTransport struct {
	client *postmark.Client
}

// NewPostmarkTransport creates a Postmark-backed transport. Both tokens are required.
func NewPostmarkTransport(cfg Config) (*PostmarkTransport, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: %w: POSTMARK_SERVER_TOKEN is required", ErrTransportInit, ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: %w: POSTMARK_ACCOUNT_TOKEN is required", ErrTransportInit, ErrInvalidConfig)
	}
	return &PostmarkTransport{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
	}, nil
}

// Send delivers one message. Opens and HTML link clicks are tracked.
func (t *PostmarkTransport) Send(ctx context.Context, opts *MailOptions) (*SendInfo, error) {
	resp, err := t.client.SendEmail(ctx, toPostmarkEmail(opts))
	if err != nil {
		return nil, newTransportError(CodeConnection, err)
	}
	if resp.ErrorCode > 0 {
		return nil, &TransportError{
			Message: resp.Message,
			Code:    fmt.Sprintf("%s%d", CodeProvider, resp.ErrorCode),
			Err:     errors.New(resp.Message),
		}
	}
	return &SendInfo{
		MessageID: resp.MessageID,
		Envelope:  envelopeOf(opts),
		Response:  fmt.Sprintf("%d %s", resp.ErrorCode, resp.Message),
	}, nil
}

func (t *PostmarkTransport) Close() error {
	return nil
}

func toPostmarkEmail(opts *MailOptions) postmark.Email {
	names := make([]string, 0, len(opts.Headers))
	for name := range opts.Headers {
		names = append(names, name)
	}
	slices.Sort(names)

	headers := make([]postmark.Header, 0, len(names))
	for _, name := range names {
		headers = append(headers, postmark.Header{Name: name, Value: opts.Headers[name]})
	}

	return postmark.Email{
		From:       opts.From,
		To:         strings.Join(opts.To, ", "),
		Cc:         strings.Join(opts.CC, ", "),
		Bcc:        strings.Join(opts.BCC, ", "),
		ReplyTo:    opts.ReplyTo,
		Subject:    opts.Subject,
		Tag:        opts.Tag,
		HTMLBody:   opts.HTML,
		TextBody:   opts.Text,
		Headers:    headers,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	}
}
