package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/earworm-scheduler/internal/catalog"
	"github.com/example/earworm-scheduler/internal/earworm"
)

func newSendCmd() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "send",
		Short: "Run the pipeline once, right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			d, err := openDeps(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			runner := buildRunner(d.cfg, catalog.NewRepo(d.db), d.log)
			runner.IgnoreGate = force

			out := runner.Run(ctx)
			switch out.Kind {
			case earworm.OutcomeSkipped:
				fmt.Fprintf(os.Stdout, "skipped: %s (use --force to override)\n", out.Reason)
			case earworm.OutcomeSent:
				fmt.Fprintf(os.Stdout, "sent, status=%s\n", out.Status)
			case earworm.OutcomeFailed:
				return out.Err
			}
			return nil
		},
	}

	c.Flags().BoolVar(&force, "force", false, "send even outside the availability window")
	return c
}
