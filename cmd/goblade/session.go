package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	goBlade "github.com/MrEthical07/goBlade"
	"github.com/MrEthical07/goBlade/blade"
	"github.com/MrEthical07/goBlade/store"
)

// session bundles what the session commands share.
type session struct {
	manager   *goBlade.SessionManager
	client    *blade.Client
	navigator *goBlade.HistoryNavigator
	persister *store.FilePersister
}

func openSession(ctx context.Context) (*session, error) {
	client, err := blade.New(blade.Config{
		BaseURL:      cfg.BaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TenantID:     cfg.TenantID,
		Timeout:      10 * time.Second,
		UserAgent:    "goblade-cli/" + version,
	})
	if err != nil {
		return nil, err
	}

	bc := goBlade.DefaultConfig()
	bc.Session.EnableRefreshToken = true
	if cfg.PublicKey != "" {
		bc.Login.PublicKey = cfg.PublicKey
	}

	nav := goBlade.NewHistoryNavigator(bc.Routes.DefaultHomePath)
	persister := store.NewFilePersister(cfg.SessionFile)
	manager, err := goBlade.New().
		WithConfig(bc).
		WithClient(client).
		WithNavigator(nav).
		WithPersister(persister).
		WithNotifier(goBlade.NotifierFunc(func(_ context.Context, n goBlade.Notification) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", n.Title, n.Message)
		})).
		WithLogger(log.Logger).
		Build()
	if err != nil {
		return nil, err
	}

	if _, err := manager.Restore(ctx); err != nil {
		log.Warn().Err(err).Str("path", persister.Path()).Msg("ignoring unreadable session snapshot")
	}
	if p, ok := manager.Profile(); ok && p.HomePath != "" {
		_ = nav.Push(ctx, p.HomePath)
	}
	return &session{manager: manager, client: client, navigator: nav, persister: persister}, nil
}

// requireSignedIn fails when there is no restored session. A token close to
// expiry is refreshed first.
func (s *session) requireSignedIn(ctx context.Context) error {
	if s.manager.AccessToken() == "" {
		return errNotSignedIn
	}
	s.manager.CheckExpiry(ctx)
	if s.manager.AccessToken() == "" {
		return errNotSignedIn
	}
	return nil
}

func (s *session) Close() {
	s.manager.Close()
}
