// Package httpserver runs an http.Server until its context is canceled, then
// drains in-flight requests and runs shutdown callbacks in order.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithOnShutdown(notifier.Close),
//	)
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// HealthCheckHandler serves liveness when given no checks and readiness
// otherwise.
package httpserver
