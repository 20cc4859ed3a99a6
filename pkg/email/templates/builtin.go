package templates

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"
)

// Built-in template names.
const (
	EventReminder            = "event_reminder"
	ConsultationNotification = "consultation_notification"
	ConsultationConfirmation = "consultation_confirmation"
	QuoteNotification        = "quote_notification"
	QuoteConfirmation        = "quote_confirmation"
	DeliveryFailure          = "delivery_failure"
)

// Default returns a registry with every built-in template.
func Default() *Registry {
	return NewRegistry(
		eventReminder(),
		consultationNotification(),
		consultationConfirmation(),
		quoteNotification(),
		quoteConfirmation(),
		deliveryFailure(),
	)
}

func page(d Data, title string, body ...templ.Component) templ.Component {
	return Layout(d.String(AppNameKey), title, Group(body...))
}

func eventReminder() Template {
	subject := func(d Data) string { return "Reminder: " + d.String("eventTitle") }
	return Template{
		Name:    EventReminder,
		Subject: subject,
		HTML: func(d Data) templ.Component {
			return page(d, subject(d),
				Heading(d.String("eventTitle")),
				Paragraph(fmt.Sprintf("Hello %s,", d.String("attendeeName"))),
				Paragraph("This is a friendly reminder about an upcoming event you registered for."),
				Fields(
					Field{Label: "Date", Value: d.String("eventDate")},
					Field{Label: "Time", Value: d.String("eventTime")},
					Field{Label: "Location", Value: d.String("eventLocation")},
				),
				Paragraph(d.String("eventDescription")),
				Paragraph("We look forward to seeing you there."),
			)
		},
		Text: func(d Data) string {
			var b strings.Builder
			fmt.Fprintf(&b, "Hello %s,\n\n", d.String("attendeeName"))
			fmt.Fprintf(&b, "This is a reminder about %s.\n", d.String("eventTitle"))
			fmt.Fprintf(&b, "Date: %s\n", d.String("eventDate"))
			if t := d.String("eventTime"); t != "" {
				fmt.Fprintf(&b, "Time: %s\n", t)
			}
			fmt.Fprintf(&b, "Location: %s\n", d.String("eventLocation"))
			if desc := d.String("eventDescription"); desc != "" {
				fmt.Fprintf(&b, "\n%s\n", desc)
			}
			b.WriteString("\nWe look forward to seeing you there.\n")
			return b.String()
		},
	}
}

func consultationFields(d Data) templ.Component {
	return Fields(
		Field{Label: "Name", Value: d.String("name")},
		Field{Label: "Email", Value: d.String("email")},
		Field{Label: "Phone", Value: d.String("phone")},
		Field{Label: "Organization", Value: d.String("organization")},
		Field{Label: "Service", Value: d.String("service")},
		Field{Label: "Preferred date", Value: d.String("preferredDate")},
		Field{Label: "Message", Value: d.String("message")},
	)
}

func consultationNotification() Template {
	subject := func(d Data) string { return "New consultation request from " + d.String("name") }
	return Template{
		Name:    ConsultationNotification,
		Subject: subject,
		HTML: func(d Data) templ.Component {
			return page(d, subject(d),
				Heading("New consultation request"),
				Paragraph("A consultation request was submitted through the website."),
				consultationFields(d),
				Paragraph("Reply to this email to contact the requester directly."),
			)
		},
	}
}

func consultationConfirmation() Template {
	return Template{
		Name:    ConsultationConfirmation,
		Subject: func(Data) string { return "We received your consultation request" },
		HTML: func(d Data) templ.Component {
			return page(d, "We received your consultation request",
				Heading("Thank you for getting in touch"),
				Paragraph(fmt.Sprintf("Dear %s,", d.String("name"))),
				Paragraph("We have received your consultation request and a member of our team will contact you shortly."),
				consultationFields(d),
			)
		},
	}
}

func quoteFields(d Data) templ.Component {
	return Fields(
		Field{Label: "Name", Value: d.String("name")},
		Field{Label: "Email", Value: d.String("email")},
		Field{Label: "Phone", Value: d.String("phone")},
		Field{Label: "Organization", Value: d.String("organization")},
		Field{Label: "Project type", Value: d.String("projectType")},
		Field{Label: "Budget", Value: d.String("budget")},
		Field{Label: "Timeline", Value: d.String("timeline")},
		Field{Label: "Description", Value: d.String("description")},
	)
}

func quoteNotification() Template {
	subject := func(d Data) string { return "New quote request from " + d.String("name") }
	return Template{
		Name:    QuoteNotification,
		Subject: subject,
		HTML: func(d Data) templ.Component {
			return page(d, subject(d),
				Heading("New quote request"),
				Paragraph("A quote request was submitted through the website."),
				quoteFields(d),
				Paragraph("Reply to this email to contact the requester directly."),
			)
		},
	}
}

func quoteConfirmation() Template {
	return Template{
		Name:    QuoteConfirmation,
		Subject: func(Data) string { return "We received your quote request" },
		HTML: func(d Data) templ.Component {
			return page(d, "We received your quote request",
				Heading("Thank you for your request"),
				Paragraph(fmt.Sprintf("Dear %s,", d.String("name"))),
				Paragraph("We have received your quote request. We will review the details and get back to you with a proposal."),
				quoteFields(d),
			)
		},
	}
}

func deliveryFailure() Template {
	subject := func(d Data) string { return "Email delivery failed: " + d.String("subject") }
	return Template{
		Name:    DeliveryFailure,
		Subject: subject,
		HTML: func(d Data) templ.Component {
			return page(d, subject(d),
				Heading("Email delivery failed"),
				Paragraph("An email could not be delivered after all retry attempts."),
				Fields(
					Field{Label: "Log entry", Value: d.String("logId")},
					Field{Label: "Template", Value: d.String("templateName")},
					Field{Label: "Recipient", Value: d.String("to")},
					Field{Label: "Subject", Value: d.String("subject")},
					Field{Label: "Attempts", Value: d.String("attempts")},
					Field{Label: "Error", Value: d.String("error")},
					Field{Label: "Error code", Value: d.String("errorCode")},
					Field{Label: "Failed at", Value: d.String("failedAt")},
				),
			)
		},
	}
}
