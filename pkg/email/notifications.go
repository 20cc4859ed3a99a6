package email

import (
	"context"
	"errors"

	"github.com/dmitrymomot/mailrelay/pkg/email/templates"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
)

// Consultation is a consultation request submitted through the website.
type Consultation struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	Organization  string
	Service       string
	PreferredDate string
	Message       string
	Metadata      map[string]any
}

func (c Consultation) data() map[string]any {
	return map[string]any{
		"id":            c.ID,
		"name":          c.Name,
		"email":         c.Email,
		"phone":         c.Phone,
		"organization":  c.Organization,
		"service":       c.Service,
		"preferredDate": c.PreferredDate,
		"message":       c.Message,
	}
}

// Quote is a quote request submitted through the website.
type Quote struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Organization string
	ProjectType  string
	Budget       string
	Timeline     string
	Description  string
	Metadata     map[string]any
}

func (q Quote) data() map[string]any {
	return map[string]any{
		"id":           q.ID,
		"name":         q.Name,
		"email":        q.Email,
		"phone":        q.Phone,
		"organization": q.Organization,
		"projectType":  q.ProjectType,
		"budget":       q.Budget,
		"timeline":     q.Timeline,
		"description":  q.Description,
	}
}

// EventReminder addresses one attendee of an upcoming event.
type EventReminder struct {
	To               string
	AttendeeName     string
	EventTitle       string
	EventDate        string
	EventTime        string
	EventLocation    string
	EventDescription string
}

// SendConsultationNotification tells the administrator about a new
// consultation request, with replies going to the requester, and sends the
// requester a confirmation. The returned result is the administrator's.
func (m *Mailer) SendConsultationNotification(ctx context.Context, c Consultation) (Result, error) {
	meta := withRecord(c.Metadata, "consultation", c.ID)
	res, err := m.SendTemplatedEmail(ctx, templates.ConsultationNotification, c.data(), MailOptions{
		To:       []string{m.cfg.AdminRecipient()},
		ReplyTo:  c.Email,
		Metadata: meta,
	})
	if err != nil {
		return res, err
	}
	m.confirm(ctx, templates.ConsultationConfirmation, c.Email, c.data(), meta)
	return res, nil
}

// SendQuoteNotification tells the administrator about a new quote request
// and sends the requester a confirmation. The returned result is the administrator's.
func (m *Mailer) SendQuoteNotification(ctx context.Context, q Quote) (Result, error) {
	meta := withRecord(q.Metadata, "quote", q.ID)
	res, err := m.SendTemplatedEmail(ctx, templates.QuoteNotification, q.data(), MailOptions{
		To:       []string{m.cfg.AdminRecipient()},
		ReplyTo:  q.Email,
		Metadata: meta,
	})
	if err != nil {
		return res, err
	}
	m.confirm(ctx, templates.QuoteConfirmation, q.Email, q.data(), meta)
	return res, nil
}

// SendEventReminderEmail sends an event reminder to one attendee.
func (m *Mailer) SendEventReminderEmail(ctx context.Context, r EventReminder) (Result, error) {
	return m.SendTemplatedEmail(ctx, templates.EventReminder, map[string]any{
		"attendeeName":     r.AttendeeName,
		"eventTitle":       r.EventTitle,
		"eventDate":        r.EventDate,
		"eventTime":        r.EventTime,
		"eventLocation":    r.EventLocation,
		"eventDescription": r.EventDescription,
	}, MailOptions{To: []string{r.To}})
}

func (m *Mailer) confirm(ctx context.Context, name, to string, data, meta map[string]any) {
	if to == "" {
		return
	}
	res, err := m.SendTemplatedEmail(ctx, name, data, MailOptions{To: []string{to}, Metadata: meta})
	if err == nil {
		err = res.Err()
	}
	if err != nil && !errors.Is(err, ErrDeliveryFailed) {
		m.logger.WarnContext(ctx, "confirmation email not sent", logger.Template(name), logger.Error(err))
	}
}

func withRecord(meta map[string]any, kind, id string) map[string]any {
	out := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	out["recordType"] = kind
	if id != "" {
		out["recordId"] = id
	}
	return out
}
