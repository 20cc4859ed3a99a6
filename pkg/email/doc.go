// Package email sends transactional email without putting the caller's
// success path at risk.
//
// A Mailer renders a named template (see the templates subpackage), writes a
// delivery log entry through deliverylog.Log and hands the message to a
// Transport with bounded retries. Delivery failures never surface as errors:
// they are reported in the returned Result, recorded on the log entry and,
// in production-like environments, passed to a FailureNotifier such as
// AdminNotifier. Only invalid input is returned as an error, before any log
// entry is created.
//
// # Transports
//
// Transports are built lazily by a TransportProvider on first use and reused
// afterwards. A failed initialization is not cached. DefaultTransportFactory
// picks one of:
//   - MailboxTransport: stores messages in a local directory when no relay is
//     configured or APP_ENV is test
//   - PostmarkTransport: EMAIL_PROVIDER=postmark
//   - SMTPTransport: pooled gomail connections with a send rate limit
//
// # Usage
//
//	var cfg email.Config
//	config.MustLoad(&cfg)
//
//	mailer, err := email.New(cfg, deliverylog.New(store))
//	if err != nil {
//	    return err
//	}
//
//	res, err := mailer.SendTemplatedEmail(ctx, templates.EventReminder, map[string]any{
//	    "eventTitle":    "AGM",
//	    "eventDate":     "2025-09-13",
//	    "eventLocation": "Dublin",
//	    "attendeeName":  "Jane",
//	}, email.MailOptions{To: []string{"jane@example.com"}})
//
// Request handlers should use the Async variants or the domain helpers from a
// detached goroutine so the response does not wait for delivery.
//
// # Retries
//
// Each lineage makes up to EMAIL_MAX_RETRIES attempts, waiting
// EMAIL_RETRY_DELAY multiplied by the attempt number between them. The log
// entry moves from pending through retrying to sent or failed. In test mode
// (APP_ENV=test) no transport is used: the entry is stored with status test
// and a synthetic message id prefixed with "test-".
package email
