// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value populated by one or
// more binders, and returns a Response that renders itself:
//
//	create := handler.HandlerFunc[CreateRequest](func(ctx handler.Context, req CreateRequest) handler.Response {
//		if err := req.Validate(); err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(result, handler.WithJSONStatus(http.StatusCreated))
//	})
//
//	r.Post("/things", handler.Wrap(create,
//		handler.WithBinders(binder.JSON()),
//		handler.WithErrorHandler(handler.JSONErrorHandler(log)),
//	))
//
// Binding and rendering failures are routed to the ErrorHandler. The
// JSONErrorHandler maps binder errors, ValidationError and HTTPError to
// status codes and hides the message of anything else behind a 500.
package handler
