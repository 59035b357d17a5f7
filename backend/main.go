package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"blog-system/backend/app/db"
	"blog-system/backend/app/repo"
	"blog-system/backend/app/services"
	"blog-system/backend/config"
	"blog-system/backend/global"
	"blog-system/backend/initialize"
	"blog-system/backend/server"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

func main() {
	root := &cobra.Command{
		Use:           "blog",
		Short:         "Minimal blog server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
		RunE: runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP server", RunE: runServe},
		&cobra.Command{Use: "migrate", Short: "Create or update the database schema", RunE: runMigrate},
		newUserAddCmd(),
	)

	if err := root.Execute(); err != nil {
		global.Logger.Error().Err(err).Msg("blog exited")
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initialize.Build(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			global.Logger.Error().Err(err).Msg("close resources")
		}
	}()
	warnings, err := app.Cfg.CheckSecrets()
	for _, w := range warnings {
		global.Logger.Warn().Msg(w)
	}
	if err != nil {
		return err
	}

	err = config.Watch(configPath, func(c *config.Config) {
		initialize.SetLogLevel(c.LogLevel)
		global.Logger.Info().Str("level", c.LogLevel).Msg("config reloaded")
	})
	if err != nil {
		global.Logger.Warn().Err(err).Msg("config watch disabled")
	}

	return server.RunHTTPServer(ctx, app.Cfg.HTTP.Host, app.Cfg.HTTP.Port, app.Router)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	gdb, err := initialize.OpenDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	global.Logger.Info().Str("driver", cfg.DB.Driver).Msg("schema up to date")
	return nil
}

func newUserAddCmd() *cobra.Command {
	var username, password, role string
	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			gdb, err := initialize.OpenDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close(gdb)
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			u, err := services.NewUserService(repo.NewUserRepository(gdb)).CreateUser(context.Background(), username, password, role)
			if err != nil {
				return err
			}
			global.Logger.Info().Uint64("id", uint64(u.ID)).Str("user", u.Username).Str("role", u.Role).Msg("user created")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password (min 6 characters)")
	cmd.Flags().StringVar(&role, "role", "User", "User or Admin")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
