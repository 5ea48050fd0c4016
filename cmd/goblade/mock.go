package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/goBlade/mock"
)

type mockCmd struct {
	addr   string
	strict bool

	cobra.Command
}

func init() {
	rootCmd.AddCommand(mockCommand())
}

func mockCommand() *cobra.Command {
	cmd := &mockCmd{
		Command: cobra.Command{
			Use:   "mock",
			Short: "serve a local blade-auth mock with the demo users",
			Args:  cobra.NoArgs,
		},
	}
	cmd.Flags().StringVar(&cmd.addr, "addr", "", "listen address (overrides GOBLADE_MOCK_ADDR)")
	cmd.Flags().BoolVar(&cmd.strict, "strict", false, "reject unknown credentials (overrides GOBLADE_STRICT)")
	cmd.RunE = cmd.exec
	return &cmd.Command
}

func (cmd *mockCmd) exec(c *cobra.Command, _ []string) error {
	mc := mock.DefaultConfig()
	mc.Addr = cfg.MockAddr
	if cmd.addr != "" {
		mc.Addr = cmd.addr
	}
	mc.ClientID = cfg.ClientID
	mc.ClientSecret = cfg.ClientSecret
	mc.SM2PrivateKey = cfg.SM2PrivateKey
	mc.StrictCredentials = cfg.StrictCredentials || cmd.strict
	mc.AllowedOrigins = cfg.AllowedOrigins

	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		log.Info().Str("addr", cfg.RedisAddr).Msg("using external redis")
	} else {
		mr, client, err := mock.EmbeddedRedis()
		if err != nil {
			return err
		}
		defer mr.Close()
		rdb = client
		log.Info().Str("addr", mr.Addr()).Msg("using embedded redis")
	}
	defer rdb.Close()

	srv, err := mock.New(mc, rdb, mock.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.ListenAndServe(c.Context())
}
