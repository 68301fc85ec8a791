package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/foodpick-ng/backend/internal/address"
	"github.com/foodpick-ng/backend/internal/admin"
	"github.com/foodpick-ng/backend/internal/analytics"
	"github.com/foodpick-ng/backend/internal/cart"
	"github.com/foodpick-ng/backend/internal/catalog"
	"github.com/foodpick-ng/backend/internal/common"
	"github.com/foodpick-ng/backend/internal/config"
	"github.com/foodpick-ng/backend/internal/coupon"
	"github.com/foodpick-ng/backend/internal/events"
	"github.com/foodpick-ng/backend/internal/health"
	"github.com/foodpick-ng/backend/internal/notify"
	"github.com/foodpick-ng/backend/internal/obs"
	"github.com/foodpick-ng/backend/internal/order"
	"github.com/foodpick-ng/backend/internal/pricing"
	"github.com/foodpick-ng/backend/internal/ratelimit"
	"github.com/foodpick-ng/backend/internal/security"
	"github.com/foodpick-ng/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "foodpick")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "foodpick-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	st := store.New(redisClient, cfg.LockTTL)

	mode := pricing.Lenient
	if cfg.PricingStrict {
		mode = pricing.Strict
	}

	var notifiers []events.Notifier
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhook(cfg.WebhookURL, cfg.WebhookSecret))
	}
	bus := &events.Bus{
		Store:     events.RedisLog{R: redisClient},
		Notifiers: notifiers,
	}

	catalogSvc := catalog.NewService(st)
	couponSvc := coupon.NewService(st, cfg.CouponEnforceLimits)
	cartSvc := &cart.Service{Store: st, Mode: mode, TTL: cfg.CartTTL, Bus: bus}
	addressSvc := address.NewService(st, cfg.DefaultZone)
	orderSvc := &order.Service{
		Store:         st,
		Cart:          cartSvc,
		Addresses:     addressSvc,
		Coupons:       couponSvc,
		Zones:         pricing.DefaultZones(),
		Mode:          mode,
		FreeThreshold: pricing.Money(cfg.FreeDeliveryThreshold),
		DefaultZone:   cfg.DefaultZone,
		ForwardOnly:   cfg.OrdersForwardOnly,
		Bus:           bus,
	}
	analyticsSvc := &analytics.Service{Orders: orderSvc, R: redisClient, TTL: cfg.AnalyticsCacheTTL}

	if envBool("SEED_ON_BOOT", false) {
		if seeded, err := catalogSvc.Seed(ctx, time.Now()); err != nil {
			logger.Error().Err(err).Msg("seed menu")
		} else if seeded {
			logger.Info().Msg("seeded demo menu")
		}
		if seeded, err := couponSvc.Seed(ctx); err != nil {
			logger.Error().Err(err).Msg("seed coupons")
		} else if seeded {
			logger.Info().Msg("seeded demo coupons")
		}
	}

	catalogHandler := &catalog.Handler{Service: catalogSvc}
	cartHandler := &cart.Handler{Svc: cartSvc, Catalog: catalogSvc}
	couponHandler := &coupon.Handler{Service: couponSvc}
	addressHandler := &address.Handler{Service: addressSvc}
	orderHandler := &order.Handler{
		Service: orderSvc,
		Placed: func(o order.Order) {
			if obs.OrdersPlacedTotal != nil {
				obs.OrdersPlacedTotal.WithLabelValues(o.Address.Zone).Inc()
			}
			if obs.OrderRevenueTotal != nil {
				obs.OrderRevenueTotal.Add(float64(o.Total))
			}
		},
	}
	orderAdmin := &order.AdminHandler{Service: orderSvc}
	analyticsHandler := &analytics.Handler{Service: analyticsSvc}
	maintenanceHandler := &admin.Handler{
		Maintenance: &admin.Maintenance{Store: st, Catalog: catalogSvc, Coupons: couponSvc},
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	rateLimit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitPerMinute > 0 {
		lim, err := ratelimit.NewRedisLimiter(redisClient, int64(cfg.RateLimitPerMinute))
		if err != nil {
			logger.Error().Err(err).Msg("initialise rate limiter")
		} else {
			rateLimit = ratelimit.Handler{
				Limiter: lim,
				OnError: func(err error) { logger.Error().Err(err).Msg("rate limit store") },
			}.Middleware
		}
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", common.SessionHeader, "Idempotency-Key"},
		ExposedHeaders:   []string{common.SessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(security.Headers{
		Enable:                envBool("SECURE_HEADERS", true),
		EnableHSTS:            envBool("SECURE_HSTS", false),
		HSTSMaxAge:            envInt("SECURE_HSTS_MAX_AGE", 31536000),
		HSTSIncludeSubdomains: true,
	}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      st,
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(common.SessionMiddleware)
		v.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
		v.Use(rateLimit)

		v.Get("/menu", catalogHandler.Menu)
		v.Get("/menu/{id}", catalogHandler.MenuItemDetail)
		v.Get("/categories", catalogHandler.Categories)

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Delete("/", cartHandler.Clear)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{identity}", cartHandler.SetQuantity)
			c.Delete("/items/{identity}", cartHandler.RemoveItem)
		})

		v.Get("/coupons", couponHandler.List)
		v.Post("/coupons/check", couponHandler.Check)

		v.Route("/addresses", func(a chi.Router) {
			a.Get("/", addressHandler.List)
			a.Post("/", addressHandler.Upsert)
			a.Get("/selected", addressHandler.Selected)
			a.Put("/{id}", addressHandler.Upsert)
			a.Delete("/{id}", addressHandler.Remove)
			a.Put("/{id}/select", addressHandler.Select)
		})

		v.Route("/orders", func(o chi.Router) {
			o.With(idem.Middleware).Post("/", orderHandler.Place)
			o.Get("/", orderHandler.List)
			o.Get("/{id}", orderHandler.Detail)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(security.AdminAuth{Token: cfg.AdminToken}.Middleware)

			admin.Get("/menu", catalogHandler.AdminList)
			admin.Post("/menu", catalogHandler.AdminUpsert)
			admin.Put("/menu/{id}", catalogHandler.AdminUpsert)
			admin.Delete("/menu/{id}", catalogHandler.AdminRemove)
			admin.Post("/seed", catalogHandler.AdminSeed)
			admin.Post("/reset", maintenanceHandler.Reset)

			admin.Get("/coupons", couponHandler.AdminList)
			admin.Post("/coupons", couponHandler.AdminUpsert)
			admin.Put("/coupons/{id}", couponHandler.AdminUpsert)
			admin.Delete("/coupons/{id}", couponHandler.AdminRemove)

			admin.Get("/orders", orderAdmin.List)
			admin.Patch("/orders/{id}/status", orderAdmin.UpdateStatus)
			admin.Post("/orders/mark-all-delivered", orderAdmin.MarkAllDelivered)
			admin.Get("/orders/export", orderAdmin.ExportCSV)

			admin.Route("/analytics", func(an chi.Router) {
				an.Get("/revenue", analyticsHandler.Revenue)
				an.Get("/top-categories", analyticsHandler.TopCategories)
				an.Get("/daily", analyticsHandler.Daily)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received")
		health.SetReady(false)
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
