package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dotrip/internal/backend"
	intconfig "dotrip/internal/config"
	router "dotrip/internal/http"
	"dotrip/internal/http/handlers"
	"dotrip/internal/http/middleware"
	"dotrip/internal/metrics"
	"dotrip/internal/services"
	"dotrip/internal/session"
	"dotrip/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	log := utils.InitLogger(env.IsProduction(), env.LogLevel)
	defer func() { _ = log.Sync() }()

	m := metrics.Default()
	client := backend.NewClient(env.BackendURL, env.BackendTimeout, m)

	store, janitor := openStateStore(env)
	defer intconfig.CloseStores()

	gate := services.OtpGate{
		Auth:     client,
		Users:    client,
		Cooldown: env.OTPResendCooldown,
		Metrics:  m,
	}
	booking := &services.BookingService{
		Resolver:    services.Resolver{API: client},
		Bookings:    client,
		Gate:        gate,
		NumPersons:  env.BookingNumPersons,
		NumVehicles: env.BookingNumVehicles,
		Metrics:     m,
		Validate:    validator.New(),
	}
	sessions := &middleware.Sessions{
		IDs:    session.NewIDs(env.SessionSecret, env.CookieSecure),
		Sealer: session.NewSealer(env.SessionSecret),
		Store:  store,
		Secure: env.CookieSecure,
	}
	limiter := middleware.NewRateLimiter(env.RateLimitPerMin)

	hs := &handlers.Handlers{
		Env:      env,
		Sessions: sessions,
		Cities:   services.CityDirectory{API: client},
		Cars:     services.CarSelectionService{API: client},
		Booking:  booking,
		Confirm:  services.ConfirmationService{Bookings: client, Users: client, Location: env.DisplayLocation()},
		Places:   services.NewCancellableSearch(client, env.AutocompleteDebounce, m),
	}

	r := router.NewRouter(env, router.Deps{
		Handlers: hs,
		Sessions: sessions,
		Metrics:  m,
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	bgCtx, stopBg := context.WithCancel(context.Background())
	defer stopBg()
	go runJanitor(bgCtx, janitor, limiter)

	go func() {
		log.Info("server listening", zap.String("addr", env.AppAddr), zap.String("backend", env.BackendURL), zap.String("state_store", env.SessionBackend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopBg()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
		return
	}

	log.Info("server stopped")
}

// openStateStore picks the wizard state backend named by SESSION_BACKEND.
// The returned func drops expired states where the backend does not.
func openStateStore(env intconfig.Env) (session.StateStore, func(context.Context) (int64, error)) {
	log := utils.GetLogger()
	switch env.SessionBackend {
	case "redis":
		rdb, err := intconfig.ConnectRedis(env.RedisURL)
		if err != nil {
			log.Fatal("redis unavailable", zap.Error(err))
		}
		return session.NewRedisStore(rdb, env.SessionTTL), nil
	case "mysql":
		db, err := intconfig.ConnectDB(env.MySQLDSN)
		if err != nil {
			log.Fatal("mysql unavailable", zap.Error(err))
		}
		store := session.MySQLStore{DB: db, TTL: env.SessionTTL}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal("wizard_states schema", zap.Error(err))
		}
		return store, store.PurgeExpired
	default:
		store := session.NewMemoryStore(env.SessionTTL)
		return store, func(context.Context) (int64, error) { return int64(store.Sweep()), nil }
	}
}

func runJanitor(ctx context.Context, purge func(context.Context) (int64, error), limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(30 * time.Minute)
			if purge == nil {
				continue
			}
			n, err := purge(ctx)
			if err != nil {
				utils.GetLogger().Warn("state purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				utils.GetLogger().Debug("expired wizard states removed", zap.Int64("count", n))
			}
		}
	}
}
