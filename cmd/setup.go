package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/drivepath/internal/config"
	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/drivefs"
	"github.com/teemow/drivepath/internal/google"
	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/logging"
)

// addGlobalFlags registers the flags shared by every command.
func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file (default: "+config.DefaultConfigPath()+")")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text, json")
	flags.String("google-client-id", "", "Google OAuth client ID, needed to refresh tokens (env: GOOGLE_CLIENT_ID)")
	flags.String("google-client-secret", "", "Google OAuth client secret (env: GOOGLE_CLIENT_SECRET)")
	flags.String("token-file", "", "OAuth token file (default: "+google.DefaultTokenPath()+")")
	flags.String("drive-endpoint", "", "Override the Drive API base URL")
	flags.Bool("yolo", false, "Enable write operations (move, rename, create)")
}

// loadConfig reads the configuration for cmd and builds its logger.
// Logs always go to stderr; stdout carries command output and the stdio protocol.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// storeFactory opens the Drive backend. Tests replace it with an in-memory store.
type storeFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (drivefs.Store, *drive.TokenManager, error)

var openStore storeFactory = openDriveClient

// openDriveClient builds the authenticated Drive client. Refreshed tokens
// are written back to the token file.
func openDriveClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (drivefs.Store, *drive.TokenManager, error) {
	tokenFile := google.NewTokenFile(cfg.Google.TokenFile)
	tok, err := google.ResolveToken(tokenFile, cfg.Google.AccessToken, cfg.Google.RefreshToken)
	if errors.Is(err, google.ErrNoToken) {
		return nil, nil, errors.New(google.MissingCredentialsMessage(tokenFile.Path()))
	}
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Google.CanRefresh() {
		logger.Warn("client credentials not configured, the token cannot be refreshed",
			slog.String("hint", "set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET"))
	}

	tokens := drive.NewTokenManager(drive.TokenManagerConfig{
		OAuth:   google.OAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, !cfg.Yolo),
		Token:   tok,
		Logger:  logger,
		Metrics: metrics,
		OnRefresh: func(t *oauth2.Token) {
			if err := tokenFile.Save(t); err != nil {
				logger.Warn("failed to save refreshed token",
					slog.String("path", tokenFile.Path()), logging.Err(err))
			}
		},
	})

	client, err := drive.NewClient(ctx, tokens, drive.ClientConfig{
		Endpoint: cfg.Google.Endpoint,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, tokens, nil
}

// openAdapter opens the store and wraps it for the CLI commands.
func openAdapter(cmd *cobra.Command) (*drivefs.Adapter, *config.Config, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	store, _, err := openStore(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return drivefs.New(store, drivefs.WithLogger(logger)), cfg, logger, nil
}

// requireYolo rejects write commands unless writes are enabled.
func requireYolo(cfg *config.Config, command string) error {
	if !cfg.Yolo {
		return fmt.Errorf("%s modifies your Drive; pass --yolo to allow write operations", command)
	}
	return nil
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
