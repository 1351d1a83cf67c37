package cli

import (
	"context"
	"fmt"
	"time"

	"tamil_society/internal/bootstrap"
	"tamil_society/internal/delivery"

	"github.com/spf13/cobra"
)

func newRedeliverCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "redeliver",
		Short: "Run one redelivery sweep for emails that were never marked sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := connect()
			if err != nil {
				return err
			}
			defer disconnect(client)

			if err := bootstrap.InitRegistry(client.Database(cfg.MongoDB_DBName)); err != nil {
				return err
			}
			components, err := bootstrap.Build(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			defer components.Delivery.Close(context.Background())

			report, err := components.Redelivery.Sweep(ctx)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			out := cmd.OutOrStdout()
			if report == nil {
				fmt.Fprintln(out, "nothing pending")
				return nil
			}
			fmt.Fprintf(out, "records: %d  marked: %d  sent: %d  skipped: %d  failed: %d\n",
				report.Records, report.Marked,
				report.Count(delivery.OutcomeSent), report.Count(delivery.OutcomeSkipped), report.Count(delivery.OutcomeFailed))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Overall cap for the sweep")
	return cmd
}
