package mock

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/MrEthical07/goBlade/blade"
	"github.com/MrEthical07/goBlade/passcrypt"
)

func (h *harness) client(t *testing.T) *blade.Client {
	t.Helper()
	cfg := blade.DefaultConfig()
	cfg.BaseURL = h.http.URL
	c, err := blade.New(cfg)
	if err != nil {
		t.Fatalf("blade client: %v", err)
	}
	return c
}

func TestBladeTokenDecryptsPassword(t *testing.T) {
	pub, priv, err := passcrypt.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	h := newHarness(t, func(c *Config) {
		c.SM2PrivateKey = priv
		c.StrictCredentials = true
	})
	enc, err := passcrypt.NewSM2Encryptor(pub)
	if err != nil {
		t.Fatalf("encryptor: %v", err)
	}
	cipher, err := enc.Encrypt("operator123")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	c := h.client(t)
	ctx := context.Background()
	res, err := c.Token(ctx, blade.LoginParams{Account: "operator", Password: cipher, Type: "account"})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" || res.UserID != "2" || res.UserName != "operator" {
		t.Fatalf("unexpected token result %+v", res)
	}
	if res.TenantID != "000000" || res.TokenType != "bearer" || res.ExpiresIn <= 0 {
		t.Fatalf("unexpected token metadata %+v", res)
	}

	info, err := c.UserInfo(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("user info: %v", err)
	}
	if info.HomePath != "/system/role" {
		t.Fatalf("unexpected home path %q", info.HomePath)
	}
	codes, err := c.AccessCodes(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("codes: %v", err)
	}
	if len(codes) != 3 {
		t.Fatalf("unexpected codes %v", codes)
	}

	if _, err := c.Token(ctx, blade.LoginParams{Account: "operator", Password: "operator123", Type: "account"}); !errors.Is(err, blade.ErrRejected) {
		t.Fatalf("plaintext password with a decryptor configured: expected ErrRejected, got %v", err)
	}
}

func TestBladeTokenRequiresClientCredentials(t *testing.T) {
	h := newHarness(t, nil)
	cfg := blade.DefaultConfig()
	cfg.BaseURL = h.http.URL
	cfg.ClientSecret = "wrong"
	c, err := blade.New(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	_, err = c.Token(context.Background(), blade.LoginParams{Account: "admin", Password: "admin123"})
	if !errors.Is(err, blade.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBladeUnsupportedGrant(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.client(t).Token(context.Background(), blade.LoginParams{Account: "admin", GrantType: "implicit"})
	var apiErr *blade.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 APIError, got %v", err)
	}
}

func TestCaptchaGrant(t *testing.T) {
	h := newHarness(t, nil)
	c := h.client(t)
	ctx := context.Background()

	ch, err := c.Captcha(ctx)
	if err != nil {
		t.Fatalf("captcha: %v", err)
	}
	if ch.Key == "" || !strings.HasPrefix(ch.Image, "data:image/svg+xml;base64,") {
		t.Fatalf("unexpected captcha %+v", ch)
	}
	code, err := h.redis.Get("goblade:captcha:" + ch.Key)
	if err != nil {
		t.Fatalf("captcha not stored: %v", err)
	}

	params := blade.LoginParams{Account: "admin", Password: "admin123", GrantType: "captcha", Key: ch.Key, Captcha: "x" + code}
	if _, err := c.Token(ctx, params); !errors.Is(err, blade.ErrRejected) {
		t.Fatalf("wrong captcha: expected ErrRejected, got %v", err)
	}
	// A challenge is consumed by the first attempt.
	params.Captcha = code
	if _, err := c.Token(ctx, params); !errors.Is(err, blade.ErrRejected) {
		t.Fatalf("reused captcha: expected ErrRejected, got %v", err)
	}

	ch, err = c.Captcha(ctx)
	if err != nil {
		t.Fatalf("captcha: %v", err)
	}
	code, _ = h.redis.Get("goblade:captcha:" + ch.Key)
	params.Key, params.Captcha = ch.Key, code
	if _, err := c.Token(ctx, params); err != nil {
		t.Fatalf("correct captcha: %v", err)
	}
}

func TestBladeRefreshGrantSingleUse(t *testing.T) {
	h := newHarness(t, nil)
	c := h.client(t)
	ctx := context.Background()

	res, err := c.Token(ctx, blade.LoginParams{Account: "viewer", Password: "viewer123"})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	next, err := c.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.AccessToken == "" || next.RefreshToken == res.RefreshToken || next.UserName != "viewer" {
		t.Fatalf("unexpected refresh result %+v", next)
	}
	if _, err := c.Refresh(ctx, res.RefreshToken); !errors.Is(err, blade.ErrUnauthorized) {
		t.Fatalf("replayed refresh token: expected ErrUnauthorized, got %v", err)
	}
}

func TestBladeLogoutRevokesAccessToken(t *testing.T) {
	h := newHarness(t, nil)
	c := h.client(t)
	ctx := context.Background()

	res, err := c.Token(ctx, blade.LoginParams{Account: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if err := c.Logout(ctx, res.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := c.UserInfo(ctx, res.AccessToken); !errors.Is(err, blade.ErrUnauthorized) {
		t.Fatalf("expected revoked token to be refused, got %v", err)
	}
	if _, err := c.Refresh(ctx, res.RefreshToken); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}
	if err := c.Logout(ctx, "not-a-token"); err != nil {
		t.Fatalf("logout with a garbage token should succeed: %v", err)
	}
}
