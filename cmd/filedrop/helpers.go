package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ysakai/filedrop/internal/classify"
	"github.com/ysakai/filedrop/internal/config"
	"github.com/ysakai/filedrop/internal/engine"
	"github.com/ysakai/filedrop/internal/mover"
	"github.com/ysakai/filedrop/internal/notify"
	"github.com/ysakai/filedrop/internal/provenance"
	"github.com/ysakai/filedrop/internal/redmine"
	"github.com/ysakai/filedrop/internal/service"
	"github.com/ysakai/filedrop/internal/settle"
	"github.com/ysakai/filedrop/internal/storage"
	"github.com/ysakai/filedrop/internal/tracker"
)

// openJournal opens and migrates the move journal.
func openJournal(ctx context.Context, cfg config.Config) (*storage.SQLiteJournal, error) {
	journal, err := storage.NewSQLiteJournal(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := journal.Migrate(ctx); err != nil {
		_ = journal.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return journal, nil
}

// newTitleLookup builds the Redmine client and logs in when credentials are
// configured. Without credentials the client is returned logged out; title
// lookups then fail per file and the watcher keeps running.
func newTitleLookup(ctx context.Context, cfg config.Config) (service.TitleLookup, error) {
	if cfg.Redmine.Host == "" {
		return nil, nil
	}
	client, err := redmine.NewClient(cfg.Redmine.Host)
	if err != nil {
		return nil, err
	}
	if cfg.Redmine.Username != "" {
		if err := client.Login(ctx, cfg.Redmine.Username, cfg.Redmine.Password); err != nil {
			slog.Warn("Tracker login failed, titles unavailable", "error", err)
		} else {
			slog.Info("Logged in to tracker", "host", cfg.Redmine.Host, "user", client.Username())
		}
	}
	return client, nil
}

// buildEngine assembles the pipeline from the configuration.
func buildEngine(ctx context.Context, cfg config.Config, journal service.MoveJournal) (*engine.Engine, error) {
	titles, err := newTitleLookup(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var notifier service.Notifier = notify.Nop{}
	if cfg.Notify.Enabled {
		notifier = notify.NewDesktop("filedrop")
	}

	deps := engine.Deps{
		Tracker: tracker.New(),
		Detector: settle.NewWithConfig(settle.Config{
			Interval:    cfg.Settle.Interval,
			MaxAttempts: cfg.Settle.MaxAttempts,
		}),
		Classifier: classify.New(provenance.NewZoneReader(), cfg.TrustedHost),
		Mover:      mover.New(),
		Titles:     titles,
		Journal:    journal,
		Notifier:   notifier,
	}
	return engine.New(deps, cfg.BaseRoot), nil
}
