// Package commands wires the sidefx-web CLI: argument parsing, configuration
// loading, credential setup, and dispatch to the Web API client.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tykeal/sidefx-web-cli/internal/app"
	"github.com/tykeal/sidefx-web-cli/internal/auth"
	"github.com/tykeal/sidefx-web-cli/internal/store"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "sidefx-web",
		Usage: "CLI for the SideFX Web API",
		Flags: rootFlags(),
		Commands: []*cli.Command{
			listBuildsCommand(),
			downloadCommand(),
		},
		Action: rootAction,
	}

	return cmd.Run(ctx, args)
}

// rootFlags defines the global flags shared by all commands.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to settings file",
		},
		&cli.StringFlag{
			Name:  "access-token-url",
			Usage: "URL for the SideFX OAuth application token",
			Value: app.DefaultConfigAccessTokenURL,
		},
		&cli.StringFlag{
			Name:  "endpoint-url",
			Usage: "URL for the SideFX Web API endpoint",
			Value: app.DefaultConfigEndpointURL,
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable DEBUG output",
		},
		&cli.BoolFlag{
			Name:    "setup",
			Aliases: []string{"s"},
			Usage:   "set up credentials for the SideFX Web API",
		},
		&cli.StringFlag{
			Name:  "storage",
			Usage: "credential storage backend (file|keyring)",
			Value: string(app.DefaultConfigStorage),
		},
		&cli.StringFlag{
			Name:  "storage-file",
			Usage: "path to the credential config file (file storage)",
		},
		&cli.StringFlag{
			Name:  "keyring-user",
			Usage: "keyring user identifier (keyring storage)",
		},
	}
}

// session holds everything a command action needs after configuration and
// credentials have been resolved.
type session struct {
	cfg    *app.Config
	logger *slog.Logger
	tokens *auth.Manager
}

// newSession resolves the runtime configuration, builds the store, runs
// interactive setup when requested or when no credentials exist yet, and
// constructs the token manager.
func newSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	st, err := cfg.Storage.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create config store: %w", err)
	}

	if cmd.Bool("setup") {
		if err := runSetup(ctx, st, os.Stdin, os.Stdout); err != nil {
			return nil, fmt.Errorf("setup failed: %w", err)
		}
	}

	stored, err := st.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		if err := runSetup(ctx, st, os.Stdin, os.Stdout); err != nil {
			return nil, fmt.Errorf("setup failed: %w", err)
		}
		stored, err = st.Load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	logger.Debug("resolved configuration",
		"access_token_url", cfg.AccessTokenURL,
		"endpoint_url", cfg.EndpointURL,
		"client_id", stored.Credentials.ClientID,
		"client_secret_key", maskSecret(stored.Credentials.ClientSecretKey),
		"cached_token", stored.Token.AccessToken != "",
		"cached_token_expiry", stored.Token.Expiry,
	)

	tokens, err := auth.NewManager(cfg.AccessTokenURL, stored, st, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		tokens: tokens,
	}, nil
}

// rootAction runs when no subcommand is given: it makes sure a usable token
// is cached, fetching a fresh one if needed.
func rootAction(ctx context.Context, cmd *cli.Command) error {
	sess, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	token, err := sess.tokens.Token()
	if err != nil {
		return err
	}

	sess.logger.Debug("access token ready", "expiry", token.Expiry)
	return nil
}

// maskSecret hides all but the last six characters of a secret in debug logs.
func maskSecret(s string) string {
	const keep = 6
	if len(s) <= keep {
		return "******"
	}
	return "******" + s[len(s)-keep:]
}
