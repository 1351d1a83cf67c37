package cli

import (
	"fmt"

	"tamil_society/internal/bootstrap"

	"github.com/spf13/cobra"
)

func newIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create missing collections and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := connect()
			if err != nil {
				return err
			}
			defer disconnect(client)

			if err := bootstrap.EnsureSchema(cmd.Context(), client.Database(cfg.MongoDB_DBName)); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "collections and indexes are up to date")
			return nil
		},
	}
}
