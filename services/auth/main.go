// Сервис авторизации Project Cancer: регистрация, вход, ротация access-токена, выход.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"

	"github.com/projectcancer/internal/config"
	"github.com/projectcancer/internal/handler"
	"github.com/projectcancer/internal/logger"
	"github.com/projectcancer/internal/repository"
	"github.com/projectcancer/internal/service"
	"github.com/projectcancer/internal/startup"
	"github.com/projectcancer/internal/storage"
	"github.com/projectcancer/internal/storage/memory"
	"github.com/projectcancer/internal/token"
)

const connectWait = 60 * time.Second

func main() {
	logger.SetPrefix("auth")
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	dev := flag.Bool("dev", false, "embedded PostgreSQL and in-memory login limiter (no external DB or Redis)")
	flag.Parse()

	code := run(*dev, *migrateOnly)
	logger.Flush(2 * time.Second)
	os.Exit(code)
}

func run(dev, migrateOnly bool) int {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	logger.SetLevel(cfg.LogLevel)
	logger.Infof("starting auth service env=%s", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if dev {
		var pg *embeddedpostgres.EmbeddedPostgres
		pg, cfg.Database.URL, err = startup.StartEmbeddedPostgres()
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			return 1
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := pg.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	// ConnectDB ждёт, пока база поднимется; миграции — после.
	pool, err := startup.ConnectDB(ctx, cfg.DatabaseURL(), cfg.DBMaxConnections(), connectWait)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	defer pool.Close()

	if err := startup.RunMigrations(cfg.DatabaseURL()); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	if migrateOnly {
		return 0
	}

	limiter, err := newLoginLimiter(ctx, cfg, dev)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	if limiter != nil {
		defer limiter.Close()
	}

	hasher, err := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	clientRepo := repository.NewClientRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	codec := token.NewCodec(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	sessions := service.NewSessionManager(clientRepo, sessionRepo, codec, hasher, limiter)
	signups := service.NewSignupService(clientRepo, hasher)

	router := handler.NewRouter(handler.NewAuthHandler(sessions, signups), handler.RouterOptions{
		CORSAllowedOrigins:         cfg.CORSAllowedOrigins,
		RefreshRequiresAccessToken: cfg.Auth.RefreshRequiresAccessToken,
		InternalSecret:             cfg.Auth.InternalSecret,
		RateLimitPerMinute:         cfg.Auth.RateLimitPerMinute,
		TrustProxyHeaders:          cfg.Auth.TrustProxyHeaders,
		AccessLog:                  !cfg.IsProduction(),
	})
	if cfg.Auth.RefreshRequiresAccessToken {
		logger.Info("refresh requires a valid access token (refresh_requires_access_token=true)")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions.RunSweeper(ctx, cfg.Auth.SessionSweepInterval)
	}()

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("auth server listening on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logger.Errorf("auth server: %v", err)
		code = 1
	}
	stop()
	logger.Info("shutting down auth server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("auth server shutdown: %v", err)
	}
	wg.Wait()
	logger.Info("auth server stopped")
	return code
}

// newLoginLimiter: Redis при заданном REDIS_URL, иначе (и в -dev) счётчик в памяти процесса.
// LOGIN_ATTEMPTS_MAX <= 0 (по умолчанию) отключает ограничение.
func newLoginLimiter(ctx context.Context, cfg *config.Config, dev bool) (storage.LoginLimiter, error) {
	attempts, window := cfg.Auth.LoginAttemptsMax, cfg.Auth.LoginAttemptsWindow
	if attempts <= 0 {
		logger.Info("login throttle disabled")
		return nil, nil
	}
	if dev || cfg.Redis.URL == "" {
		logger.Infof("login throttle: in-memory, %d attempts per %v", attempts, window)
		return memory.New(attempts, window), nil
	}
	client, err := startup.ConnectRedis(ctx, cfg.Redis.URL, attempts, window, connectWait)
	if err != nil {
		return nil, err
	}
	logger.Infof("login throttle: redis, %d attempts per %v", attempts, window)
	return client, nil
}
