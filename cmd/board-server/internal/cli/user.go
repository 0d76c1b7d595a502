package cli

import (
	"fmt"

	"github.com/coregx/board"
	"github.com/coregx/board/adapters/relica"
	"github.com/coregx/board/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	userName     string
	userUsername string
	userRole     string
	userToken    string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage board users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user and print its bearer token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := openDatabase(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		var users board.UserRepository
		if cfg.Database.Prefix != "" {
			users = relica.NewUserRepositoryWithPrefix(db, cfg.Database.Driver, cfg.Database.Prefix)
		} else {
			users = relica.NewUserRepository(db, cfg.Database.Driver)
		}

		token := userToken
		if token == "" {
			token = uuid.NewString()
		}

		user := model.NewUser(userName, userUsername, userRole, token)
		if err := user.Validate(); err != nil {
			return fmt.Errorf("invalid user: %w", err)
		}

		saved, err := users.Save(ctx, user)
		if err != nil {
			return fmt.Errorf("save user: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User created: id=%d, username=%s, role=%s\n", saved.ID, saved.Username, saved.Role)
		fmt.Fprintf(out, "Token: %s\n", token)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userUsername, "username", "", "login name (required)")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userRole, "role", model.RoleUser, "role: User or Administrator")
	userAddCmd.Flags().StringVar(&userToken, "token", "", "bearer token (default: random)")
	_ = userAddCmd.MarkFlagRequired("username")

	userCmd.AddCommand(userAddCmd)
}
