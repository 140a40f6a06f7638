// Package httpserver runs an http.Handler with configured timeouts and a
// context driven graceful shutdown, and provides liveness and readiness
// handlers.
//
//	srv := httpserver.New(cfg, router, httpserver.WithLogger(log))
//	if err := srv.Run(ctx); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns nil after a clean shutdown. Listen failures are wrapped with
// ErrStart, drain failures with ErrShutdown.
package httpserver
