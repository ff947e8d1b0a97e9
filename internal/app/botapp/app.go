package botapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/config"
	"github.com/ivankudzin/orgreviews/internal/infra/httpclient"
	s3infra "github.com/ivankudzin/orgreviews/internal/infra/s3"
	tginfra "github.com/ivankudzin/orgreviews/internal/infra/telegram"
	"github.com/ivankudzin/orgreviews/internal/jobs/cleanup"
	pgrepo "github.com/ivankudzin/orgreviews/internal/repo/postgres"
	filessvc "github.com/ivankudzin/orgreviews/internal/services/files"
)

// pollTimeout must stay above the 30s long-poll window of the bot.
const pollTimeout = 45 * time.Second

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	postgres   *pgxpool.Pool
	bot        *tginfra.Bot
	commands   commands
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for bot app: %w", err)
	}

	s3Client, err := s3infra.NewClient(cfg.S3)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init s3 for bot app: %w", err)
	}

	fileService := filessvc.NewService(pgrepo.NewFileRepo(pool), filessvc.NewS3Storage(s3Client, cfg.S3.Bucket))
	cleanupJob := cleanup.NewOrphanFilesJob(fileService, cfg.Bot.OrphanRetention, logger)

	var bot *tginfra.Bot
	if token := cfg.BotToken(); token != "" {
		bot, err = tginfra.NewBot(token, httpclient.New(pollTimeout))
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init telegram bot: %w", err)
		}
		logger.Info("telegram bot authorized", zap.String("username", bot.Username()))
	} else {
		logger.Warn("BOT_TOKEN is empty, command listener disabled")
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		postgres:   pool,
		bot:        bot,
		commands:   commands{users: pgrepo.NewUserRepo(pool), sender: bot},
		cleanupJob: cleanupJob,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started")

	errCh := make(chan error, 1)
	go a.cleanupJob.Loop(ctx, a.cfg.Bot.CleanupInterval)

	if a.bot != nil {
		go func() {
			errCh <- a.bot.Listen(ctx, tginfra.Handlers{OnCommand: a.handleCommand})
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("bot app stopped")
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, context.Canceled) {
			<-ctx.Done()
			return nil
		}
		return err
	}
}

func (a *App) handleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	if err := a.commands.handle(ctx, update); err != nil {
		a.logger.Warn("bot command failed",
			zap.String("command", update.Command),
			zap.Int64("chat_id", update.ChatID),
			zap.Error(err),
		)
	}
	return nil
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
