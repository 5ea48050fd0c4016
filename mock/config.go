package mock

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goBlade/jwt"
	"github.com/MrEthical07/goBlade/middleware"
	"github.com/MrEthical07/goBlade/password"
)

// Config controls the mock server.
type Config struct {
	Addr      string
	KeyPrefix string

	// ClientID and ClientSecret are the Basic credentials the blade-auth
	// endpoints expect. An empty ClientID disables the check.
	ClientID     string
	ClientSecret string

	// Tokens configures signing. An HS256 config without PrivateKey gets a
	// random secret at startup.
	Tokens jwt.Config

	// SM2PrivateKey decrypts passwords sent to /blade-auth/token. Without it
	// the submitted password is compared as is.
	SM2PrivateKey string

	CookieName     string
	CookieHashKey  []byte
	CookieBlockKey []byte
	CookieSecure   bool

	CaptchaTTL time.Duration

	// StrictCredentials rejects unknown credentials and throttles failures.
	StrictCredentials bool
	LoginAttempts     int
	LoginWindow       time.Duration

	// RequestsPerMinute limits each client IP. Zero disables the limit.
	RequestsPerMinute int
	AllowedOrigins    []string

	// GuardMode selects how bearer tokens are checked on protected routes.
	GuardMode middleware.Mode

	Hashing password.Config
	Users   []User
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":5320",
		KeyPrefix:    "goblade:",
		ClientID:     "saber",
		ClientSecret: "saber_secret",
		Tokens: jwt.Config{
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: jwt.MethodHS256,
			Issuer:        "goblade-mock",
		},
		CookieName:        "jwt",
		CaptchaTTL:        5 * time.Minute,
		LoginAttempts:     5,
		LoginWindow:       15 * time.Minute,
		RequestsPerMinute: 300,
		GuardMode:         middleware.ModeStrict,
		Hashing:           password.DefaultConfig(),
		Users:             DefaultUsers(),
	}
}

func (c Config) Validate() error {
	if len(c.Users) == 0 {
		return errors.New("mock: at least one user is required")
	}
	ids := make(map[string]struct{}, len(c.Users))
	names := make(map[string]struct{}, len(c.Users))
	for i, u := range c.Users {
		if u.UserID == "" || u.Username == "" {
			return fmt.Errorf("mock: user %d needs an id and a username", i)
		}
		if _, dup := ids[u.UserID]; dup {
			return fmt.Errorf("mock: duplicate user id %q", u.UserID)
		}
		if _, dup := names[u.Username]; dup {
			return fmt.Errorf("mock: duplicate username %q", u.Username)
		}
		ids[u.UserID] = struct{}{}
		names[u.Username] = struct{}{}
	}
	if c.CookieName == "" {
		return errors.New("mock: CookieName is required")
	}
	if c.CaptchaTTL <= 0 {
		return errors.New("mock: CaptchaTTL must be > 0")
	}
	if c.StrictCredentials && (c.LoginAttempts <= 0 || c.LoginWindow <= 0) {
		return errors.New("mock: strict credentials need LoginAttempts and LoginWindow")
	}
	if c.RequestsPerMinute < 0 {
		return errors.New("mock: RequestsPerMinute must be >= 0")
	}
	return nil
}
