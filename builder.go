package goBlade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goBlade/blade"
	"github.com/MrEthical07/goBlade/internal/audit"
	"github.com/MrEthical07/goBlade/passcrypt"
	"github.com/MrEthical07/goBlade/store"
)

// AuthAPI is the part of the auth service a [SessionManager] calls.
// [*blade.Client] implements it.
type AuthAPI interface {
	Token(ctx context.Context, p blade.LoginParams) (blade.LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
}

// TokenRefresher trades a refresh token for new tokens.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (blade.LoginResult, error)
}

// Builder assembles a [SessionManager]. It can be used once.
type Builder struct {
	config    Config
	api       AuthAPI
	refresher TokenRefresher
	profiles  ProfileFetcher
	encryptor passcrypt.Encryptor
	navigator Navigator
	notifier  Notifier
	persister store.Persister
	auditSink AuditSink
	logger    zerolog.Logger

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithClient uses c for login, logout, refresh and, unless another fetcher
// is set, the profile fetch.
func (b *Builder) WithClient(c *blade.Client) *Builder {
	b.api = c
	b.refresher = c
	if b.profiles == nil {
		b.profiles = RemoteProfileFetcher{API: c}
	}
	return b
}

func (b *Builder) WithAPI(api AuthAPI) *Builder {
	b.api = api
	return b
}

func (b *Builder) WithRefresher(r TokenRefresher) *Builder {
	b.refresher = r
	return b
}

func (b *Builder) WithProfileFetcher(f ProfileFetcher) *Builder {
	b.profiles = f
	return b
}

// WithEncryptor replaces the SM2 encryptor derived from Config.Login.PublicKey.
func (b *Builder) WithEncryptor(e passcrypt.Encryptor) *Builder {
	b.encryptor = e
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithPersister keeps the session across process restarts.
func (b *Builder) WithPersister(p store.Persister) *Builder {
	b.persister = p
	return b
}

// WithAuditSink receives session lifecycle events. Without one they are
// logged through the configured logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) Build() (*SessionManager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.api == nil {
		return nil, errors.New("auth API is required")
	}

	refresher := b.refresher
	if refresher == nil {
		refresher, _ = b.api.(TokenRefresher)
	}
	if cfg.Session.EnableRefreshToken && refresher == nil {
		return nil, errors.New("Session EnableRefreshToken requires a TokenRefresher")
	}

	enc := b.encryptor
	if enc == nil {
		sm2, err := passcrypt.NewSM2Encryptor(cfg.Login.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("Login PublicKey: %w", err)
		}
		enc = sm2
	}

	profiles := b.profiles
	if profiles == nil {
		profiles = StaticProfileFetcher{}
	}
	nav := b.navigator
	if nav == nil {
		nav = NewHistoryNavigator("/")
	}
	notifier := b.notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: b.logger}
	}

	sink := b.auditSink
	if sink == nil {
		sink = audit.ZerologSink{Logger: b.logger}
	}

	for _, w := range cfg.Lint() {
		if w.Severity == LintWarn {
			b.logger.Warn().Str("code", w.Code).Msg(w.Message)
		}
	}

	b.built = true
	return &SessionManager{
		config:    cfg,
		api:       b.api,
		refresher: refresher,
		profiles:  profiles,
		encryptor: enc,
		navigator: nav,
		notifier:  notifier,
		persister: b.persister,
		log:       b.logger,
		tokens:    &store.Tokens{},
		access:    &store.Access{},
		user:      &store.User{},
		metrics:   NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink),
		now: time.Now,
	}, nil
}
