// Package app wires configuration, storage, domain services, and the HTTP
// server into a running process.
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
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-api/internal/domain/cart"
	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/user"
	"github.com/xenking/storefront-api/internal/handler"
	"github.com/xenking/storefront-api/internal/notify"
	"github.com/xenking/storefront-api/internal/storage/postgres"
	"github.com/xenking/storefront-api/pkg/health"
	"github.com/xenking/storefront-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the notification
// worker, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pricing, err := cfg.Pricing.Policy()
	if err != nil {
		return errors.Wrap(err, "pricing config")
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)

	// Notification sink: fire-and-forget order confirmations.
	var sender notify.Sender
	if cfg.SMTP.Host != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	var notifier order.Notifier = order.NopNotifier{}
	var sink *notify.Sink
	if sender != nil {
		sink = notify.NewSink(sender, lg.Named("notify"), cfg.StoreName, cfg.SMTP.Buffer)
		notifier = sink
	}

	// Domain services.
	couponValidator := coupon.NewRepoValidator(couponRepo)
	cartService := cart.NewService(cartRepo, productRepo)
	orderService := order.NewService(
		productRepo, couponValidator, orderRepo, addressRepo,
		notifier, pricing, cfg.Orders.RestockOnCancel,
	)
	guard := user.NewGuard(userRepo)

	// HTTP handlers.
	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		productRepo, cartService, orderService, couponValidator, addressRepo, guard,
	)
	auth := handler.NewAuthenticator(userRepo, []byte(cfg.APIKeyPepper))

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "api_key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.LogRequests(),
			auth.Middleware,
		),
	}

	g, gctx := errgroup.WithContext(ctx)

	if sink != nil {
		g.Go(func() error {
			if err := sink.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrap(err, "notification sink")
			}
			return nil
		})
	}

	// Graceful shutdown: stop advertising readiness, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
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
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
