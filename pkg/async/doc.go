// Package async runs functions in goroutines and exposes their outcome as a
// typed Future.
//
// The mailer facade uses Detach so that a request handler can trigger a
// notification and respond immediately; the retry loop and delivery logging
// continue after the request context is cancelled:
//
//	future := async.Detach(r.Context(), opts, mailer.SendEmail)
//	// respond to the client without awaiting
//
// Tests and batch jobs may still observe the outcome:
//
//	res, err := future.AwaitWithTimeout(time.Second)
package async
