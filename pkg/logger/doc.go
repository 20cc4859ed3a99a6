// Package logger builds *slog.Logger instances with functional options,
// consistent attribute helpers and transparent injection of values stored
// in context.Context.
//
// New picks a text or JSON handler, applies static attributes and wraps the
// result in LogHandlerDecorator, which runs every registered ContextExtractor
// before delegating to the underlying handler.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Production, "mailrelay"),
//		logger.WithContextExtractors(environment.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "email sent",
//		logger.LogID(entry.ID),
//		logger.MessageID(info.MessageID),
//		logger.Attempt(2, 3),
//	)
//
// Attribute helpers return an empty slog.Attr for empty input, which slog
// silently drops.
package logger
