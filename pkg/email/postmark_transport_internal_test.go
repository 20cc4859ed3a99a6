package email

import (
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
)

func TestToPostmarkEmail(t *testing.T) {
	t.Parallel()

	got := toPostmarkEmail(&MailOptions{
		From:    "Hope Foundation <noreply@example.org>",
		To:      []string{"a@b.com", "c@d.com"},
		CC:      []string{"team@example.org"},
		ReplyTo: "support@example.org",
		Subject: "Hi",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
		Tag:     "event_reminder",
		Headers: map[string]string{"Precedence": "bulk", "Auto-Submitted": "auto-generated"},
	})

	assert.Equal(t, postmark.Email{
		From:     "Hope Foundation <noreply@example.org>",
		To:       "a@b.com, c@d.com",
		Cc:       "team@example.org",
		ReplyTo:  "support@example.org",
		Subject:  "Hi",
		Tag:      "event_reminder",
		HTMLBody: "<p>Hi</p>",
		TextBody: "Hi",
		Headers: []postmark.Header{
			{Name: "Auto-Submitted", Value: "auto-generated"},
			{Name: "Precedence", Value: "bulk"},
		},
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	}, got)
}

func TestNewMessageID(t *testing.T) {
	t.Parallel()

	assert.Regexp(t, `^<[0-9a-f-]{36}@example\.org>$`, newMessageID("Hope Foundation <noreply@example.org>"))
	assert.Regexp(t, `^<[0-9a-f-]{36}@mailrelay\.local>$`, newMessageID(""))
}
