package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/earworm-scheduler/internal/auth"
	"github.com/example/earworm-scheduler/internal/catalog"
	"github.com/example/earworm-scheduler/internal/scheduler"
	"github.com/example/earworm-scheduler/internal/web"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the scheduler loop + status web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := openDeps(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			if err := d.cfg.LoadSessionKeys(); err != nil {
				return err
			}

			repo := catalog.NewRepo(d.db)
			runner := buildRunner(d.cfg, repo, d.log)

			sched := &scheduler.Scheduler{
				Runner: runner,
				Lower:  d.cfg.LowerBound,
				Upper:  d.cfg.UpperBound,
				Tick:   d.cfg.PollInterval,
				Log:    d.log,
			}
			go func() { _ = sched.Run(ctx) }()

			authStore := auth.NewStore(d.db, d.cfg.CookieHashKey, d.cfg.CookieBlockKey)
			ws := &web.Server{Auth: authStore, Catalog: repo, Sched: sched, Log: d.log}

			d.log.Infow("earwormd started",
				"addr", d.cfg.HTTPAddr,
				"recipient", d.cfg.Recipient,
				"lower_minutes", d.cfg.LowerBound,
				"upper_minutes", d.cfg.UpperBound)

			err = web.Start(ctx, d.cfg.HTTPAddr, ws.Routes())
			if err == http.ErrServerClosed || ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}
