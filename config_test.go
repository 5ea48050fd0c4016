package goBlade

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goBlade/passcrypt"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Routes.LoginPath != "/auth/login" || cfg.Routes.DefaultHomePath != "/dashboard" {
		t.Fatalf("unexpected routes %+v", cfg.Routes)
	}
	if cfg.Login.AccountType != "account" || cfg.Login.PublicKey != passcrypt.DefaultPublicKey {
		t.Fatalf("unexpected login config %+v", cfg.Login)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"no key":          func(c *Config) { c.Login.PublicKey = " " },
		"relative login":  func(c *Config) { c.Routes.LoginPath = "auth/login" },
		"protocol home":   func(c *Config) { c.Routes.DefaultHomePath = "//evil.example" },
		"same routes":     func(c *Config) { c.Routes.DefaultHomePath = c.Routes.LoginPath },
		"expired mode":    func(c *Config) { c.Session.ExpiredMode = "toast" },
		"negative skew":   func(c *Config) { c.Session.ExpirySkew = -time.Second },
		"logout timeout":  func(c *Config) { c.Session.LogoutTimeout = 0 },
		"audit buffer":    func(c *Config) { c.Audit.BufferSize = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLintCodes(t *testing.T) {
	codes := DefaultConfig().Lint().Codes()
	for _, want := range []string{"empty_password_passthrough", "default_public_key"} {
		if !slices.Contains(codes, want) {
			t.Fatalf("expected %q in %v", want, codes)
		}
	}

	cfg := DefaultConfig()
	cfg.Login.RejectEmptyPassword = true
	cfg.Login.PublicKey = strings.Repeat("0", 130)
	cfg.Session.ExpiredMode = ExpiredModeModal
	cfg.Session.ExpirySkew = 2 * time.Minute
	cfg.Audit.Enabled = false
	codes = cfg.Lint().Codes()
	want := []string{"modal_without_refresh", "expiry_skew_large", "audit_disabled"}
	if !slices.Equal(codes, want) {
		t.Fatalf("expected %v, got %v", want, codes)
	}
}

func TestBuilderChecks(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error without API")
	}

	cfg := DefaultConfig()
	cfg.Session.EnableRefreshToken = true
	if _, err := New().WithConfig(cfg).WithAPI(&fakeAPI{}).Build(); err == nil {
		t.Fatal("expected error for refresh without refresher")
	}

	bad := DefaultConfig()
	bad.Login.PublicKey = "04abcd"
	if _, err := New().WithConfig(bad).WithAPI(&fakeAPI{}).Build(); err == nil {
		t.Fatal("expected error for an unusable public key")
	}

	b := New().WithAPI(&fakeAPI{})
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer m.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestHistoryNavigator(t *testing.T) {
	n := NewHistoryNavigator("")
	if n.CurrentPath() != "/" {
		t.Fatalf("unexpected start %q", n.CurrentPath())
	}
	_ = n.Push(context.Background(), "/dashboard")
	_ = n.Replace(context.Background(), "/auth/login?x=1", map[string][]string{"redirect": {"/dashboard"}})
	want := []string{"/", "/auth/login?x=1&redirect=%2Fdashboard"}
	if got := n.Entries(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
