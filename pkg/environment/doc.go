// Package environment propagates the application environment (development,
// staging, production, test) through context.Context, HTTP requests and
// structured logs.
//
// The mailer uses it to decide between real delivery and the simulated
// test mailbox, and to decide whether administrators should be alerted
// about exhausted retries (production-like environments only).
//
// # Usage
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	ctx := environment.WithContext(context.Background(), env)
//	if environment.IsTest(ctx) {
//	    // sends are simulated
//	}
//
// Attach it to every request:
//
//	r.Use(environment.Middleware(env))
//
// Add it to slog records through pkg/logger:
//
//	log := logger.New(logger.WithContextExtractors(environment.LoggerExtractor()))
//
// Missing values result in the zero value ("").
package environment
