package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Routes are the handlers mounted on the single HTTP port.
type Routes struct {
	Handlers    Handlers
	WebSocket   http.Handler
	Metrics     http.Handler
	Audio       http.Handler
	AudioPrefix string
	UI          http.Handler
}

func NewRouter(routes Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", routes.Handlers.PingHandler)

	mux.HandleFunc("GET /api/state", routes.Handlers.State)
	mux.HandleFunc("POST /api/start", routes.Handlers.Start)
	mux.HandleFunc("POST /api/pause", routes.Handlers.Pause)
	mux.HandleFunc("POST /api/draw", routes.Handlers.Draw)
	mux.HandleFunc("POST /api/speed", routes.Handlers.Speed)
	mux.HandleFunc("POST /api/restart", routes.Handlers.Restart)

	if routes.WebSocket != nil {
		mux.Handle("GET /ws", routes.WebSocket)
	}

	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}

	if routes.Audio != nil {
		prefix := "/" + strings.Trim(routes.AudioPrefix, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, routes.Audio))
	}

	if routes.UI != nil {
		mux.Handle("GET /", routes.UI)
	}

	return mux
}

// Start serves handler on port until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, logger *slog.Logger, port string, handler http.Handler) error {
	log := logger.With("component", "http-server")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
