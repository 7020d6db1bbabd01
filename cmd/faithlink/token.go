package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faithlink360/gateway/internal/faithlink/app"
	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/pkg/cryptox"
)

func tokenCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with access tokens",
	}
	cmd.AddCommand(tokenIssueCmd(configPath))
	return cmd
}

// tokenIssueCmd signs a token without a database lookup, for operators and
// service accounts.
func tokenIssueCmd(configPath *string) *cobra.Command {
	var claim domain.Claim
	var role string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign an access token with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			claim.Role = r

			cfg, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET must be set to issue tokens")
			}

			codec, err := app.NewCodec(cfg)
			if err != nil {
				return err
			}
			raw, err := codec.Issue(claim)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&claim.Subject, "subject", "", "Subject (user id)")
	cmd.Flags().StringVar(&claim.ChurchID, "church", domain.DefaultChurchID, "Church scope")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "Role")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func secretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a random JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cryptox.GenerateToken(cryptox.TokenSize256)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}
