package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agenticpay/spt"
	"github.com/agenticpay/spt/internal/config"
	"github.com/agenticpay/spt/signature"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting shared payment token issuer",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"livemode", cfg.Issuer.Livemode,
	)

	store := spt.NewMemoryTokenStore()

	var issuerOpts []spt.IssuerOption
	if cfg.Issuer.Livemode {
		issuerOpts = append(issuerOpts, spt.IssuerWithLivemode())
	}
	issuer := spt.NewIssuer(store, issuerOpts...)

	var handlerOpts []spt.Option
	if cfg.Issuer.FacilitatorKey != "" {
		key := cfg.Issuer.FacilitatorKey
		handlerOpts = append(handlerOpts, spt.WithAuthenticator(
			spt.AuthenticatorFunc(func(ctx context.Context, apiKey string) error {
				if apiKey != key {
					return spt.NewHTTPError(http.StatusUnauthorized, spt.InvalidRequest, spt.InvalidAuthorization, "invalid API key")
				}
				return nil
			}),
		))
	}
	if cfg.Issuer.SigningSecret != "" {
		handlerOpts = append(handlerOpts, spt.WithSignatureVerifier(signature.HMACVerifier{
			Key: []byte(cfg.Issuer.SigningSecret),
		}))
		if cfg.Issuer.RequireSigned {
			handlerOpts = append(handlerOpts, spt.WithRequireSignedRequests())
		}
	}

	handler := http.Handler(spt.NewIssuerHandler(issuer, handlerOpts...))
	handler = logging(logger)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// logging records one line per request with method, path, status, and latency.
func logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).Truncate(time.Millisecond),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code before forwarding to the real writer.
func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
