package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/mkells/galleria"
	"github.com/mkells/galleria/config"
	"github.com/mkells/galleria/database"
)

var useraddCmd = &cobra.Command{
	Use:   "useradd <username>",
	Short: "Create a user",
	Long: `Create a user directly in the database.

The add-user endpoint is meant for admins, so the first admin has to be
created out of band. The password is prompted for interactively and never
appears in shell history or process listings.

Examples:
  # Bootstrap the first admin
  galleria useradd admin --name "Site Admin" --role admin

  # Create a regular editor
  galleria useradd maria --name "Maria" --role editor`,
	Args: cobra.ExactArgs(1),
	RunE: runUseradd,
}

var (
	useraddName string
	useraddRole string
)

func init() {
	useraddCmd.Flags().StringVar(&useraddName, "name", "", "display name (defaults to the username)")
	useraddCmd.Flags().StringVar(&useraddRole, "role", "admin", "role string stored on the user")
	rootCmd.AddCommand(useraddCmd)
}

func runUseradd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	username := args[0]

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	name := useraddName
	if name == "" {
		name = username
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	repo, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	callTimeout := time.Duration(cfg.Service.CallTimeout) * time.Second
	users, err := galleria.NewUserService(repo, galleria.UserConfig{CallTimeout: callTimeout})
	if err != nil {
		return fmt.Errorf("create user service: %w", err)
	}

	user, err := users.AddUser(ctx, galleria.NewUser{
		Name:     name,
		Username: username,
		Password: password,
		Role:     useraddRole,
	})
	if err != nil {
		if errors.Is(err, galleria.ErrConflict) {
			return fmt.Errorf("username %q already exists", username)
		}
		return fmt.Errorf("add user: %w", err)
	}

	slog.Info("user created", "id", user.ID, "username", user.Username, "role", user.Role)
	return nil
}

func promptPassword() (string, error) {
	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(s string) error {
			if len(s) < 8 {
				return errors.New("password must be at least 8 characters")
			}
			return nil
		},
	}

	password, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	confirm := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
	}

	confirmed, err := confirm.Run()
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}

	if password != confirmed {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}
