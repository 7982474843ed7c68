package postgres

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrateLogger forwards golang-migrate progress messages to slog.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return false
}

type migrateOptions struct {
	logger *slog.Logger
}

type MigrateOption func(*migrateOptions)

// WithMigrateLogger reports applied migrations through logger.
func WithMigrateLogger(logger *slog.Logger) MigrateOption {
	return func(o *migrateOptions) {
		o.logger = logger
	}
}

// RunMigrations applies every pending up migration found at path
// (e.g. "file://migrations") to the database behind dsn.
func RunMigrations(path string, dsn string, opts ...MigrateOption) error {
	const op = "postgres.RunMigrations"

	var o migrateOptions
	for _, opt := range opts {
		opt(&o)
	}

	m, err := migrate.New(path, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if o.logger != nil {
		m.Log = migrateLogger{logger: o.logger}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}
