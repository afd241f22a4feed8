package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/config"
	"github.com/Mur0dDev/Classification-Bot/internal/db"
	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/repository"
	"github.com/Mur0dDev/Classification-Bot/internal/vocab"
)

// loadFlows reads the questionnaires named by c, falling back to the
// built-in ones.
func loadFlows(c *config.Config) (*flow.Registry, error) {
	set := vocab.Default()
	if c.Flows.VocabularyPath != "" {
		var err error
		if set, err = vocab.LoadFile(c.Flows.VocabularyPath); err != nil {
			return nil, err
		}
	}
	if c.Flows.Path != "" {
		return flow.LoadFile(c.Flows.Path, set)
	}
	return flow.Default(set)
}

// openStore opens the configured row store behind a circuit breaker.
func openStore(ctx context.Context, c *config.Config, log *zap.Logger) (repository.Sheet, func(), error) {
	var (
		sheet repository.Sheet
		done  = func() {}
	)
	switch c.Store.Backend {
	case config.BackendSheets:
		repo, err := repository.NewSheetsRepo(ctx, c.Store.SheetsCredentials, c.Store.SpreadsheetID)
		if err != nil {
			return nil, nil, err
		}
		sheet = repo
		log.Info("using Google Sheets store", zap.String("spreadsheet", c.Store.SpreadsheetID))
	default:
		conn, err := db.OpenAndMigrate(c.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		sheet = repository.NewSQLiteRepo(conn)
		done = func() { _ = conn.Close() }
		log.Info("using SQLite store", zap.String("path", c.Store.SQLitePath))
	}

	settings := repository.BreakerSettings{
		Failures: c.Store.BreakerFailures,
		Cooldown: c.Store.BreakerCooldown,
	}
	return repository.NewBreaker(c.Store.Backend, sheet, settings, log), done, nil
}

// ensureHeaders writes the header row of every flow's table.
func ensureHeaders(ctx context.Context, flows *flow.Registry, sheet repository.Sheet) error {
	for _, f := range flows.Flows() {
		if err := sheet.EnsureHeader(ctx, f.Table, f.Header()); err != nil {
			return fmt.Errorf("prepare table %s: %w", f.Table, err)
		}
	}
	return nil
}
