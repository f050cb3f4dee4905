package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/earworm-scheduler/internal/bitly"
	"github.com/example/earworm-scheduler/internal/catalog"
	"github.com/example/earworm-scheduler/internal/config"
	"github.com/example/earworm-scheduler/internal/db"
	"github.com/example/earworm-scheduler/internal/earworm"
	"github.com/example/earworm-scheduler/internal/genius"
	"github.com/example/earworm-scheduler/internal/logger"
	"github.com/example/earworm-scheduler/internal/migrate"
	"github.com/example/earworm-scheduler/internal/twilio"
)

// deps is the shared startup bundle for commands that touch the database.
type deps struct {
	cfg config.Config
	log *zap.SugaredLogger
	db  *db.DB
}

func openDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.DevMode)
	if err != nil {
		return nil, err
	}

	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, err
	}

	return &deps{cfg: cfg, log: log, db: d}, nil
}

func (d *deps) close() {
	d.db.Close()
	_ = d.log.Sync()
}

// buildRunner wires the pipeline against the real providers.
func buildRunner(cfg config.Config, repo *catalog.Repo, log *zap.SugaredLogger) *earworm.Runner {
	return &earworm.Runner{
		Source:    repo,
		Resolver:  genius.New(cfg.GeniusToken),
		Shortener: bitly.New(cfg.BitlyToken),
		Sender: twilio.New(twilio.Credentials{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioNumber,
		}),
		Recipient:   cfg.Recipient,
		SettleDelay: cfg.SettleDelay,
		Log:         log,
	}
}
