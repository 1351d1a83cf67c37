package cli

import (
	"fmt"
	"os"
	"time"

	authmodels "tamil_society/internal/api/auth/models"
	authsvc "tamil_society/internal/api/auth/service"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				return fmt.Errorf("--user must be a 24 character hex id: %w", err)
			}
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("no signing secret: pass --secret or set JWT_SECRET")
			}

			token, err := authsvc.IssueToken(secret, id, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&userID, "user", "", "User id (required)")
	f.StringVar(&role, "role", authmodels.RoleUser, "Role claim")
	f.StringVar(&secret, "secret", "", "HS256 secret, defaults to $JWT_SECRET")
	f.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
