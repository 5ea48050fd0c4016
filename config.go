package goBlade

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goBlade/passcrypt"
)

// ExpiredMode selects what happens when a session cannot be refreshed.
type ExpiredMode string

const (
	// ExpiredModeModal keeps the session state and only raises the expired
	// flag so the UI can show a re-login dialog over the current page.
	ExpiredModeModal ExpiredMode = "modal"
	// ExpiredModePage logs out and sends the user to the login page.
	ExpiredModePage ExpiredMode = "page"
)

// Config configures a [SessionManager]. Start from [DefaultConfig].
type Config struct {
	Login   LoginConfig
	Routes  RoutesConfig
	Session SessionConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

type LoginConfig struct {
	// PublicKey is the hex SM2 public key used to encrypt passwords.
	PublicKey string
	// AccountType is sent as the "type" parameter of the token request.
	AccountType string
	// RejectEmptyPassword fails an empty-password login locally instead of
	// sending it unencrypted.
	RejectEmptyPassword bool
}

type RoutesConfig struct {
	LoginPath       string
	DefaultHomePath string
}

type SessionConfig struct {
	EnableRefreshToken bool
	ExpiredMode        ExpiredMode
	// ExpirySkew treats a token as stale this long before its exp claim.
	ExpirySkew time.Duration
	// LogoutTimeout bounds the best-effort logout call.
	LogoutTimeout time.Duration
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func DefaultConfig() Config {
	return Config{
		Login: LoginConfig{
			PublicKey:   passcrypt.DefaultPublicKey,
			AccountType: "account",
		},
		Routes: RoutesConfig{
			LoginPath:       "/auth/login",
			DefaultHomePath: "/dashboard",
		},
		Session: SessionConfig{
			ExpiredMode:   ExpiredModePage,
			ExpirySkew:    10 * time.Second,
			LogoutTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first setting that would make the manager misbehave.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Login.PublicKey) == "" {
		return errors.New("Login PublicKey is required")
	}
	if !isRoute(c.Routes.LoginPath) {
		return fmt.Errorf("Routes LoginPath %q must start with /", c.Routes.LoginPath)
	}
	if !isRoute(c.Routes.DefaultHomePath) {
		return fmt.Errorf("Routes DefaultHomePath %q must start with /", c.Routes.DefaultHomePath)
	}
	if c.Routes.LoginPath == c.Routes.DefaultHomePath {
		return errors.New("Routes LoginPath and DefaultHomePath must differ")
	}
	switch c.Session.ExpiredMode {
	case ExpiredModeModal, ExpiredModePage:
	default:
		return fmt.Errorf("Session ExpiredMode %q is not supported", c.Session.ExpiredMode)
	}
	if c.Session.ExpirySkew < 0 {
		return errors.New("Session ExpirySkew must be >= 0")
	}
	if c.Session.LogoutTimeout <= 0 {
		return errors.New("Session LogoutTimeout must be > 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}

func isRoute(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}

// LintSeverity grades a [LintWarning].
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
)

func (s LintSeverity) String() string {
	if s == LintWarn {
		return "warn"
	}
	return "info"
}

// LintWarning flags a valid but questionable setting.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

type LintWarnings []LintWarning

func (ws LintWarnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// Lint returns advisory warnings. It never fails; run Validate first.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if !c.Login.RejectEmptyPassword {
		add("empty_password_passthrough", LintInfo, "empty passwords are sent to the server unencrypted")
	}
	if c.Login.PublicKey == passcrypt.DefaultPublicKey {
		add("default_public_key", LintWarn, "password encryption uses the public key shipped with the console")
	}
	if c.Session.ExpiredMode == ExpiredModeModal && !c.Session.EnableRefreshToken {
		add("modal_without_refresh", LintInfo, "modal expiry without refresh leaves the user on a page whose calls keep failing")
	}
	if c.Session.ExpirySkew > time.Minute {
		add("expiry_skew_large", LintWarn, "tokens are treated as expired more than a minute early")
	}
	if c.Session.LogoutTimeout > 30*time.Second {
		add("logout_timeout_long", LintInfo, "logout may block navigation for a long time when the server is down")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "session lifecycle events are not recorded")
	}
	if c.Metrics.Enabled && !c.Metrics.EnableLatencyHistograms {
		add("latency_disabled", LintInfo, "login latency is not measured")
	}
	return ws
}
