// Package cli implements notifyctl, the operator tool for the notification engine
package cli

import (
	"tamil_society/config"
	"tamil_society/internal/bootstrap"
	"tamil_society/internal/database"
	"tamil_society/internal/global"
	"tamil_society/internal/logger"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "notifyctl",
		Short:         "Operate the notification engine",
		Long:          "notifyctl maintains indexes, re-runs stuck email deliveries, previews email templates and mints development tokens.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newIndexesCmd())
	cmd.AddCommand(newRedeliverCmd())
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs notifyctl
func Execute() error {
	return newRootCmd().Execute()
}

// connect loads the config and connects to MongoDB. The caller closes the client.
func connect() (*config.Configuration, *mongo.Client, error) {
	if err := logger.Init(nil); err != nil {
		return nil, nil, err
	}
	bootstrap.InitColNames()
	global.InitValidator()

	cfg, err := bootstrap.InitConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := bootstrap.InitDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func disconnect(client *mongo.Client) {
	if client == nil {
		return
	}
	_ = database.CloseInstance(client)
	logger.Flush()
}
