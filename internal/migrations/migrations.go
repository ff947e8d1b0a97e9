package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const dir = "sql"

//go:embed sql/*.sql
var files embed.FS

type Command string

const (
	CommandUp     Command = "up"
	CommandDown   Command = "down"
	CommandStatus Command = "status"
)

func ParseCommand(raw string) (Command, error) {
	switch Command(raw) {
	case CommandUp, CommandDown, CommandStatus:
		return Command(raw), nil
	default:
		return "", fmt.Errorf("unknown migrate command %q", raw)
	}
}

// Run applies cmd to the database behind pool using the embedded schema.
func Run(ctx context.Context, pool *pgxpool.Pool, cmd Command, logger *zap.Logger) error {
	if pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return run(ctx, db, cmd, logger)
}

func run(ctx context.Context, db *sql.DB, cmd Command, logger *zap.Logger) error {
	goose.SetBaseFS(files)
	if logger != nil {
		goose.SetLogger(gooseLogger{log: logger.Sugar()})
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	var err error
	switch cmd {
	case CommandUp:
		err = goose.UpContext(ctx, db, dir)
	case CommandDown:
		err = goose.DownContext(ctx, db, dir)
	case CommandStatus:
		err = goose.StatusContext(ctx, db, dir)
	default:
		err = fmt.Errorf("unknown migrate command %q", cmd)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cmd, err)
	}
	return nil
}

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatalf(format, v...)
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}
