package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/mailrelay/pkg/binder"
	"github.com/dmitrymomot/mailrelay/pkg/environment"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
)

// classify maps err to a status code and key.
func classify(err error) (int, string) {
	var httpErr HTTPError
	var verr ValidationError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, httpErr.Key
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return ErrUnsupportedMediaType.Code, ErrUnsupportedMediaType.Key
	case errors.Is(err, binder.ErrBodyTooLarge):
		return ErrRequestTooLarge.Code, ErrRequestTooLarge.Key
	case errors.Is(err, binder.ErrFailedToParseJSON):
		return ErrBadRequest.Code, ErrBadRequest.Key
	default:
		return ErrInternalServerError.Code, ErrInternalServerError.Key
	}
}

// JSONErrorHandler renders errors with JSONError. Client errors are logged at
// warn level, everything else at error level. Outside production-like
// environments server errors carry their original message.
func JSONErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx Context, err error) {
		resp := JSONError(err).(*jsonResponse)
		r := ctx.Request()
		if env := environment.FromContext(ctx); env != "" && !env.IsProductionLike() && resp.status >= http.StatusInternalServerError {
			resp.body.Error.Message = err.Error()
		}

		level := slog.LevelError
		if resp.status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", resp.status),
			logger.Error(err),
		)

		if rerr := resp.Render(ctx.ResponseWriter(), r); rerr != nil {
			log.ErrorContext(ctx, "failed to render error response", logger.Error(rerr))
		}
	}
}
