package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Serve runs the HTTP surface until ctx is canceled, then drains in-flight
// requests before returning. The api and worker binaries share this
// lifecycle and differ only in the router they pass in. A nil error means a
// clean shutdown; anything else is a bind or listener failure.
func Serve(ctx context.Context, cfg *Config, handler http.Handler, logger Logger) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http: listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// Status polls are fast; the idle timeout is a generous drain window
	// even with a pipeline request in flight.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return err
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info().Msg("http: stopped")
	return nil
}
