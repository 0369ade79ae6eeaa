package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cindral/core/cmd/api/middleware"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	a, err := newApp(ctx, opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer a.close()

	limiter := middleware.NewRateLimiter(opts.cfg.RateLimit.RPS, opts.cfg.RateLimit.Burst)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", opts.cfg.Server.Port),
		Handler:           a.router(limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		opts.logger.Info("server starting", "addr", srv.Addr, "source", opts.cfg.Source.Kind, "positions", opts.cfg.Positions.Backend)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	opts.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
