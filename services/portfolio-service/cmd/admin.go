package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/app"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/config"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/logger"
)

// adminPasswordEnv keeps the password out of shell history when set.
const adminPasswordEnv = "ADMIN_PASSWORD"

const minPasswordLength = 8

func newCreateAdminCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
		role     string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first superadmin, or any account with --force",
		Example: `  ADMIN_PASSWORD=... portfolio-service create-admin --email owner@example.com --name "Dr. Ada Lovelace"
  portfolio-service create-admin --force --email editor@example.com --name Editor --role manager --password s3cret-pass`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(adminPasswordEnv)
			}
			if password == "" {
				return fmt.Errorf("a password is required: pass --password or set %s", adminPasswordEnv)
			}
			if len(password) < minPasswordLength {
				return fmt.Errorf("password must be at least %d characters", minPasswordLength)
			}
			if !model.Role(role).Valid() {
				return fmt.Errorf("role must be %q or %q", model.RoleSuperAdmin, model.RoleManager)
			}

			return createAdmin(cmd.Context(), usecase.RegisterParams{
				Email:    email,
				Password: password,
				Name:     name,
				Role:     model.Role(role),
			}, force)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or set "+adminPasswordEnv+")")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleSuperAdmin), "superadmin or manager")
	cmd.Flags().BoolVar(&force, "force", false, "create the account even when users already exist")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func createAdmin(ctx context.Context, params usecase.RegisterParams, force bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to release resources")
		}
	}()

	user, err := application.AuthUsecase.Bootstrap(ctx, params, force)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAlreadyBootstrapped):
			return errors.New("users already exist: pass --force to create another account")
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			return fmt.Errorf("%s is already registered", params.Email)
		}
		return err
	}

	log.Info().Str("user_id", user.ID.Hex()).Str("email", user.Email).Str("role", string(user.Role)).Msg("user created")
	return nil
}
