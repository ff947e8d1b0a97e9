package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/config"
	"github.com/ivankudzin/orgreviews/internal/infra/httpclient"
	s3infra "github.com/ivankudzin/orgreviews/internal/infra/s3"
	tginfra "github.com/ivankudzin/orgreviews/internal/infra/telegram"
	"github.com/ivankudzin/orgreviews/internal/migrations"
	pgrepo "github.com/ivankudzin/orgreviews/internal/repo/postgres"
	redrepo "github.com/ivankudzin/orgreviews/internal/repo/redis"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
	filessvc "github.com/ivankudzin/orgreviews/internal/services/files"
	"github.com/ivankudzin/orgreviews/internal/services/notifications"
	orgsvc "github.com/ivankudzin/orgreviews/internal/services/organizations"
	tgprovider "github.com/ivankudzin/orgreviews/internal/services/providers/telegram"
	"github.com/ivankudzin/orgreviews/internal/services/rate"
	reviewssvc "github.com/ivankudzin/orgreviews/internal/services/reviews"
	userssvc "github.com/ivankudzin/orgreviews/internal/services/users"
	"github.com/ivankudzin/orgreviews/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	var metrics *Metrics
	if cfg.Metrics.Enabled {
		metrics = NewMetrics()
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, metrics)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	if cfg.Postgres.MigrateOnStartup {
		if pool == nil {
			return nil, fmt.Errorf("migrate on startup: postgres is unavailable")
		}
		if err := migrations.Run(ctx, pool, migrations.CommandUp, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate on startup: %w", err)
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis)
	if err := redrepo.Ping(ctx, redisClient); err != nil {
		log.Warn("redis init failed, sessions are unavailable", zap.Error(err))
	}

	cookies, err := authsvc.NewCookieCodec(
		cfg.Auth.CookieName,
		cfg.Auth.SessionHashKey,
		cfg.Auth.SessionBlockKey,
		cfg.Auth.CookieSecure,
		cfg.Auth.SessionTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("init session cookies: %w", err)
	}
	if cfg.Auth.SessionHashKey == "" {
		log.Warn("SESSION_HASH_KEY is empty, session cookies will not survive a restart")
	}

	sessionRepo := redrepo.NewSessionRepo(redisClient)
	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, cfg.Auth.SessionTTL)
	loginLimiter := rate.NewLimiter(
		redrepo.NewRateRepo(redisClient),
		"login",
		rate.PerMinuteAnd10Sec(cfg.Auth.LoginPerMinute, cfg.Auth.LoginPer10Sec)...,
	)

	userRepo := pgrepo.NewUserRepo(pool)
	organizationRepo := pgrepo.NewOrganizationRepo(pool)
	reviewRepo := pgrepo.NewReviewRepo(pool)
	fileRepo := pgrepo.NewFileRepo(pool)

	var storage filessvc.ObjectStorage
	if c, err := s3infra.NewClient(cfg.S3); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		storage = filessvc.NewS3Storage(c, cfg.S3.Bucket)
	}
	fileService := filessvc.NewService(fileRepo, storage)

	notifier := notifications.NewNotifier(decisionSender(cfg, log), log)

	telegramProvider := tgprovider.NewService(
		tgprovider.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.MaxAuthAge),
		userRepo,
		authService,
		log,
	)
	userService := userssvc.NewService(userRepo, reviewRepo, organizationRepo, fileService, notifier)
	organizationService := orgsvc.NewService(organizationRepo, redrepo.NewCacheRepo(redisClient, cfg.Redis.CacheTTL))
	reviewService := reviewssvc.NewService(reviewRepo, organizationRepo)

	checks := map[string]handlers.Pinger{
		"redis": func(ctx context.Context) error { return redrepo.Ping(ctx, redisClient) },
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		Cookies:             cookies,
		TelegramProvider:    telegramProvider,
		UserService:         userService,
		OrganizationService: organizationService,
		ReviewService:       reviewService,
		FileService:         fileService,
		LoginLimiter:        loginLimiter,
		Metrics:             metrics,
		HealthChecks:        checks,
		Logger:              log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

// decisionSender returns the bot used for approval notifications, or nil
// when notifications are off or the bot cannot be reached.
func decisionSender(cfg config.Config, log *zap.Logger) notifications.Sender {
	token := cfg.BotToken()
	if !cfg.Bot.NotifyDecisions || token == "" {
		return nil
	}
	bot, err := tginfra.NewBot(token, httpclient.New(15*time.Second))
	if err != nil {
		log.Warn("telegram bot init failed, decision notifications disabled", zap.Error(err))
		return nil
	}
	return bot
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
