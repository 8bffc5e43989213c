// Package commands implements the consularctl command tree.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"consular/internal/apiclient"
	"consular/internal/credentials"
	"consular/pkg/config"
	"consular/pkg/logger"
)

// env is built once per invocation by the root command.
type env struct {
	cfg      *config.Config
	log      logger.Logger
	creds    credentials.Store
	services *apiclient.Services
	out      io.Writer
}

var (
	app *env

	baseURL  string
	logLevel string
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "consularctl",
		Short:         "Apply for consular services and manage portal credentials",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if baseURL != "" {
				cfg.PortalAPI.BaseURL = baseURL
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.ValidateCore(); err != nil {
				return err
			}

			log := logger.NewWithLevel("consularctl", cfg.LogLevel, os.Stderr)
			creds, err := credentials.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			client := apiclient.New(apiclient.FromPortalConfig(cfg.PortalAPI), creds, log)

			app = &env{
				cfg:      cfg,
				log:      log,
				creds:    creds,
				services: apiclient.NewServices(client),
				out:      cmd.OutOrStdout(),
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "api", "", "portal API base URL (default $PORTAL_API_BASE_URL)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level written to stderr (default $LOG_LEVEL)")

	root.AddCommand(applyCmd(), feeCmd(), codesCmd(), tokenCmd(), trackCmd())
	root.SetContext(context.Background())
	return root
}
