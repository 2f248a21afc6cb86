// Package server provides HTTP server lifecycle management with graceful
// shutdown and errgroup-compatible coordination. It wraps the standard
// http.Server with a small set of options for logging, TLS, and shutdown
// timing.
//
// # Basic Usage
//
//	srv := server.New(":8080", server.WithLogger(log))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	if err := srv.Start(ctx, mux); err != nil {
//		log.Error("server stopped", "error", err)
//	}
//
// # errgroup Integration
//
// Run returns a func() error suitable for errgroup.Group.Go, handling
// graceful shutdown when the group's context is canceled:
//
//	g, gctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(gctx, mux))
//	if err := g.Wait(); err != nil {
//		log.Error("server error", "error", err)
//	}
//
// # TLS
//
// Supply a *tls.Config via WithTLS to serve HTTPS; certificates must
// already be loaded into the config (this package does not manage
// certificate acquisition or renewal).
package server
