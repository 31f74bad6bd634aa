package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/yaqa/yaqa/internal/app"
	"github.com/yaqa/yaqa/internal/config"
	"github.com/yaqa/yaqa/internal/db"
	"github.com/yaqa/yaqa/internal/service"
)

func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var req service.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create <username> <password>",
		Short: "Create a user, even while registration is closed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Username = args[0]
			req.Password = args[1]

			return withDB(func(cfg *config.Config, database *sqlx.DB) error {
				err := db.RunMigrations(database.DB, cfg.DBDriver)
				if err != nil {
					return err
				}

				// Registration may be closed for the public, not for operators
				open := *cfg
				open.RegistrationOpen = true

				a, err := app.NewWithDB(&open, database)
				if err != nil {
					return err
				}
				defer func() { _ = a.Close() }()

				user, err := a.UserService.Register(context.Background(), req)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	return cmd
}
