package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faithlink360/gateway/internal/faithlink/app"
	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/service"
	"github.com/faithlink360/gateway/pkg/cryptox"
)

func userCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage member accounts",
	}
	cmd.AddCommand(userAddCmd(configPath))
	return cmd
}

func userAddCmd(configPath *string) *cobra.Command {
	var req service.CreateUserRequest
	var role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a member account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			req.Role = r

			cfg, err := app.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
			if err != nil {
				return fmt.Errorf("load pepper: %w", err)
			}
			db, err := app.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			users := &service.UserService{Store: db, Hasher: cryptox.NewHasher(pepper)}
			u, err := users.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) role=%s church=%s\n", u.Email, u.ID, u.Role, u.ChurchID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password")
	cmd.Flags().StringVar(&req.DisplayName, "name", "", "Display name (default: email local part)")
	cmd.Flags().StringVar(&req.ChurchID, "church", domain.DefaultChurchID, "Church the member belongs to")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "Role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
