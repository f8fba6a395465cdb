package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/order"
	"github.com/sal-retail/backoffice/internal/gateway"
	"github.com/sal-retail/backoffice/internal/resource"
	"github.com/sal-retail/backoffice/internal/session"
	"github.com/sal-retail/backoffice/internal/upstream"
	"github.com/sal-retail/backoffice/pkg/health"
	"github.com/sal-retail/backoffice/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the gateway.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("upstream", cfg.UpstreamURL),
	)

	// Upstream API client over shared token state.
	tokens := &session.Tokens{}
	api := apiclient.New(cfg.UpstreamURL, tokens)

	var store session.Store = &session.MemoryStore{}
	if cfg.SessionFile != "" {
		store = session.NewFileStore(cfg.SessionFile)
	}
	sessions := session.NewManager(api, tokens, store)

	// A persisted session may have survived a restart. Failure here only
	// means the admin signs in again.
	if ok, err := sessions.Restore(ctx); err != nil {
		lg.Warn("Session restore failed", zap.Error(err))
	} else if ok {
		lg.Info("Session restored")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("upstream", 5*time.Second, health.PingCheck(api))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Upstream repositories.
	orderRepo := upstream.NewOrders(api)
	productRepo := upstream.NewProducts(api)
	dir := upstream.NewDirectory(api)
	reports := upstream.NewReports(orderRepo, dir)

	// Domain services.
	orderService := order.NewService(orderRepo, productRepo)

	// Entity CRUD registry and the HTTP surface.
	registry := resource.Registry(api)
	gw := gateway.New(ctx, gateway.Config{EditTTL: cfg.EditTTL},
		sessions, orderService, productRepo, reports, dir, registry)

	// Mux: health endpoints + gateway routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", gw.Routes())

	handler := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(handler, "backoffice-gateway",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
