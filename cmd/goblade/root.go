package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/goBlade/internal/telemetry"
)

const version = "0.1.0"

var (
	cfg             config
	shutdownTracing = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:           "goblade",
	Short:         "Sign in to a blade-auth service and inspect the session",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		applyFlags(cmd)

		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		log.Debug().Str("base_url", cfg.BaseURL).Str("session_file", cfg.SessionFile).Msg("configuration loaded")

		shutdownTracing, err = telemetry.Init(cmd.Context(), "goblade", version, cfg.OTLPEndpoint)
		return err
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdownTracing(ctx)
	},
}

var flagValues struct {
	baseURL     string
	sessionFile string
	debug       bool
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagValues.baseURL, "base-url", "", "API base URL (overrides GOBLADE_BASE_URL)")
	pf.StringVar(&flagValues.sessionFile, "session-file", "", "where the session snapshot is kept (overrides GOBLADE_SESSION_FILE)")
	pf.BoolVar(&flagValues.debug, "debug", false, "log at debug level")
}

func applyFlags(cmd *cobra.Command) {
	pf := cmd.Flags()
	if pf.Changed("base-url") {
		cfg.BaseURL = flagValues.baseURL
	}
	if pf.Changed("session-file") {
		cfg.SessionFile = flagValues.sessionFile
	}
	if flagValues.debug {
		cfg.LogLevel = zerolog.LevelDebugValue
	}
}

var errNotSignedIn = errors.New("not signed in, run goblade login first")
