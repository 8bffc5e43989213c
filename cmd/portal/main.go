// ==============================================================================
// CONSULAR PORTAL SERVER - cmd/portal/main.go
// ==============================================================================
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consular/internal/apiclient"
	"consular/internal/catalog"
	"consular/internal/credentials"
	"consular/internal/handler"
	"consular/internal/middleware"
	"consular/internal/scheduler"
	"consular/internal/wizard"
	"consular/pkg/cache"
	"consular/pkg/config"
	"consular/pkg/logger"
	"consular/pkg/validator"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel("consular-portal", cfg.LogLevel, os.Stdout)

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Starting consular portal", map[string]interface{}{
		"port":        cfg.Server.Port,
		"portal_api":  cfg.PortalAPI.BaseURL,
		"credentials": cfg.Credentials.Backend,
	})

	ctx := context.Background()

	creds, err := credentials.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open credential store", map[string]interface{}{
			"backend": cfg.Credentials.Backend,
			"error":   err.Error(),
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := apiclient.New(apiclient.FromPortalConfig(cfg.PortalAPI), creds, log,
		apiclient.WithMetrics(apiclient.NewMetrics(reg)))
	services := apiclient.NewServices(client)

	val := validator.New()
	fees := catalog.Default()
	rules := wizard.NewRules(val, wizard.WithMaxDocumentBytes(cfg.Upload.MaxBytes))
	sessions := wizard.NewStore(rules, fees, log)

	jobs := scheduler.NewScheduler(log)
	jobs.Schedule(&scheduler.Task{
		Name:     "prune_wizard_sessions",
		Interval: cfg.Wizard.PruneInterval,
		Run: func(ctx context.Context) error {
			if n := sessions.Prune(cfg.Wizard.SessionIdleTimeout); n > 0 {
				log.Info("Pruned idle wizard sessions", map[string]interface{}{
					"removed":   n,
					"remaining": sessions.Len(),
				})
			}
			return nil
		},
	})
	jobs.Start()

	r := mux.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.BodyLimit(2*cfg.Upload.MaxBytes + 1<<20))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"consular-portal"}`))
	}).Methods(http.MethodGet)

	if cfg.Server.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	var rdb *redis.Client
	if cfg.Limits.RateLimitRequests > 0 || cfg.Limits.IdempotencyTTL > 0 {
		rdb, err = cache.FromConfig(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Redis unavailable for request limits", map[string]interface{}{
				"addr":  cfg.Redis.URL,
				"error": err.Error(),
			})
		}
	}
	if cfg.Limits.RateLimitRequests > 0 {
		api.Use(middleware.NewRateLimiter(rdb, cfg.Limits.RateLimitRequests, cfg.Limits.RateLimitWindow, "api").Limit)
	}
	if cfg.Limits.IdempotencyTTL > 0 {
		api.Use(middleware.NewIdempotencyMiddleware(rdb, cfg.Limits.IdempotencyTTL, log).Require)
	}

	handler.NewWizardHandler(sessions, services, val, log, cfg.Upload.MaxBytes).Register(api)
	handler.NewCatalogHandler(fees, log).Register(api)
	handler.NewPortalHandler(services, val, log).Register(api)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Consular portal started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down consular portal...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Consular portal forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if closer, ok := creds.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	log.Info("Consular portal stopped gracefully", nil)
}
