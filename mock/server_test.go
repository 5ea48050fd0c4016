package mock

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goBlade/internal/audit"
	"github.com/MrEthical07/goBlade/middleware"
	"github.com/MrEthical07/goBlade/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func fastHashing() password.Config {
	return password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

type harness struct {
	server *Server
	http   *httptest.Server
	redis  *miniredis.Miniredis
	audit  *audit.ChannelSink
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := DefaultConfig()
	cfg.Hashing = fastHashing()
	cfg.RequestsPerMinute = 0
	if mutate != nil {
		mutate(&cfg)
	}
	sink := audit.NewChannelSink(1024)
	srv, err := New(cfg, rdb, WithAuditSink(sink))
	if err != nil {
		t.Fatalf("new mock server: %v", err)
	}
	t.Cleanup(srv.Close)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{server: srv, http: ts, redis: mr, audit: sink}
}

type testEnvelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Message string          `json:"message"`
}

type call struct {
	method  string
	path    string
	body    any
	bearer  string
	cookies []*http.Cookie
}

func (h *harness) do(t *testing.T, c call) (*http.Response, testEnvelope) {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(c.method, h.http.URL+c.path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", c.method, c.path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env testEnvelope
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope %q: %v", raw, err)
		}
	}
	return resp, env
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" && c.Value != "" {
			return c
		}
	}
	t.Fatal("expected refresh cookie")
	return nil
}

type loginData struct {
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	RealName    string   `json:"realName"`
	Roles       []string `json:"roles"`
	HomePath    string   `json:"homePath"`
	AccessToken string   `json:"accessToken"`
}

func (h *harness) login(t *testing.T, username, pw string) (loginData, *http.Cookie) {
	t.Helper()
	resp, env := h.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"username": username, "password": pw}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d (%s)", username, resp.StatusCode, env.Message)
	}
	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	return data, refreshCookie(t, resp)
}

func TestLoginExactMatch(t *testing.T) {
	h := newHarness(t, nil)
	resp, env := h.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"username": "operator", "password": "operator123"}})
	if resp.StatusCode != http.StatusOK || env.Code != 0 || env.Error != nil || env.Message != "ok" {
		t.Fatalf("unexpected envelope: status=%d %+v", resp.StatusCode, env)
	}
	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.UserID != "2" || data.HomePath != "/system/role" || data.AccessToken == "" {
		t.Fatalf("unexpected login data %+v", data)
	}
	ck := refreshCookie(t, resp)
	if !ck.HttpOnly {
		t.Fatal("refresh cookie must be HttpOnly")
	}
	if strings.Contains(string(env.Data), "password") {
		t.Fatal("login response must not carry the password")
	}
}

func TestLoginFallbackNeverRejects(t *testing.T) {
	h := newHarness(t, nil)

	data, _ := h.login(t, "ghost", "wrong")
	if data.UserID != "1" || data.Username != "ghost" || data.RealName != "ghost" {
		t.Fatalf("expected first user renamed to ghost, got %+v", data)
	}

	data, _ = h.login(t, "admin", "not-admin123")
	if data.UserID != "1" || data.Username != "admin" {
		t.Fatalf("wrong password should still log in as the first user, got %+v", data)
	}

	resp, env := h.do(t, call{method: http.MethodPost, path: "/api/auth/login"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty body: expected 200, got %d", resp.StatusCode)
	}
	var empty loginData
	_ = json.Unmarshal(env.Data, &empty)
	if empty.Username != "Admin" || empty.RealName != "Admin" {
		t.Fatalf("expected Admin for empty username, got %+v", empty)
	}
}

func TestStrictCredentialsRejectAndThrottle(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.StrictCredentials = true
		c.LoginAttempts = 2
	})
	bad := call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"username": "viewer", "password": "nope"}}

	for i := 0; i < 2; i++ {
		resp, env := h.do(t, bad)
		if resp.StatusCode != http.StatusForbidden || env.Code != -1 || env.Error == nil || *env.Error != env.Message {
			t.Fatalf("attempt %d: expected 403 error envelope, got %d %+v", i, resp.StatusCode, env)
		}
		if string(env.Data) != "null" {
			t.Fatalf("error envelope data should be null, got %s", env.Data)
		}
	}
	good := call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"username": "viewer", "password": "viewer123"}}
	if resp, _ := h.do(t, good); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once throttled, got %d", resp.StatusCode)
	}
}

func TestRefreshCookieIsSingleUse(t *testing.T) {
	h := newHarness(t, nil)
	_, first := h.login(t, "admin", "admin123")

	resp, env := h.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookies: []*http.Cookie{first}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", resp.StatusCode)
	}
	var access string
	if err := json.Unmarshal(env.Data, &access); err != nil || access == "" {
		t.Fatalf("expected new access token, got %s", env.Data)
	}
	second := refreshCookie(t, resp)

	if resp, _ := h.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookies: []*http.Cookie{first}}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("replayed cookie: expected 403, got %d", resp.StatusCode)
	}
	// The replay revoked the whole session, so the rotated cookie is dead too.
	if resp, _ := h.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookies: []*http.Cookie{second}}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("rotated cookie after replay: expected 403, got %d", resp.StatusCode)
	}
	if resp, _ := h.do(t, call{method: http.MethodPost, path: "/api/auth/refresh"}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("missing cookie: expected 403, got %d", resp.StatusCode)
	}
}

func TestCodesAndUserInfo(t *testing.T) {
	h := newHarness(t, nil)
	op, _ := h.login(t, "operator", "operator123")

	for _, path := range []string{"/api/auth/codes", "/auth/codes"} {
		resp, env := h.do(t, call{method: http.MethodGet, path: path, bearer: op.AccessToken})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		var codes []string
		_ = json.Unmarshal(env.Data, &codes)
		if len(codes) != 3 || codes[0] != "system:role:list" {
			t.Fatalf("%s: unexpected codes %v", path, codes)
		}
	}

	ghost, _ := h.login(t, "ghost", "x")
	for _, path := range []string{"/api/user/info", "/user/info"} {
		resp, env := h.do(t, call{method: http.MethodGet, path: path, bearer: ghost.AccessToken})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		var info loginData
		_ = json.Unmarshal(env.Data, &info)
		if info.Username != "ghost" || info.RealName != "ghost" || info.HomePath != "/dashboard" {
			t.Fatalf("%s: unexpected info %+v", path, info)
		}
	}

	resp, env := h.do(t, call{method: http.MethodGet, path: "/user/info"})
	if resp.StatusCode != http.StatusUnauthorized || env.Message != msgUnauthorized {
		t.Fatalf("no token: expected 401 envelope, got %d %+v", resp.StatusCode, env)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t, nil)
	data, ck := h.login(t, "admin", "admin123")

	resp, _ := h.do(t, call{method: http.MethodPost, path: "/api/auth/logout", bearer: data.AccessToken, cookies: []*http.Cookie{ck}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected refresh cookie to be cleared")
	}
	if resp, _ := h.do(t, call{method: http.MethodGet, path: "/user/info", bearer: data.AccessToken}); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d", resp.StatusCode)
	}
	if resp, _ := h.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookies: []*http.Cookie{ck}}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("refresh after logout: expected 403, got %d", resp.StatusCode)
	}
}

func TestJWTOnlyModeSkipsSessionChecks(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.GuardMode = middleware.ModeJWTOnly })
	data, ck := h.login(t, "admin", "admin123")
	h.do(t, call{method: http.MethodPost, path: "/api/auth/logout", bearer: data.AccessToken, cookies: []*http.Cookie{ck}})

	if resp, _ := h.do(t, call{method: http.MethodGet, path: "/user/info", bearer: data.AccessToken}); resp.StatusCode != http.StatusOK {
		t.Fatalf("jwt-only mode should accept an unexpired token, got %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t, "admin", "admin123")

	resp, err := http.Get(h.http.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(h.http.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `goblade_mock_http_requests_total{code="200",method="POST",route="/api/auth/login"} 1`) {
		t.Fatalf("expected login request counter in scrape:\n%s", body)
	}

	h.redis.Close()
	resp, err = http.Get(h.http.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("healthz without redis: expected 503, got %d", resp.StatusCode)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no users":       func(c *Config) { c.Users = nil },
		"duplicate id":   func(c *Config) { c.Users[1].UserID = c.Users[0].UserID },
		"duplicate name": func(c *Config) { c.Users[1].Username = c.Users[0].Username },
		"no cookie":      func(c *Config) { c.CookieName = "" },
		"no captcha ttl": func(c *Config) { c.CaptchaTTL = 0 },
		"strict budget":  func(c *Config) { c.StrictCredentials = true; c.LoginAttempts = 0 },
		"negative rate":  func(c *Config) { c.RequestsPerMinute = -1 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestAuditEvents(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.StrictCredentials = true })

	h.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"username": "viewer", "password": "nope"}})
	viewer, _ := h.login(t, "viewer", "viewer123")
	resp, _ := h.do(t, call{method: http.MethodPost, path: "/system/role/create", bearer: viewer.AccessToken, body: map[string]string{"name": "x", "code": "x"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	h.do(t, call{method: http.MethodPost, path: "/api/auth/logout", bearer: viewer.AccessToken})

	want := []string{audit.KindLoginFailure, audit.KindLoginSuccess, audit.KindAccessDenied, audit.KindLogout}
	for _, kind := range want {
		select {
		case ev := <-h.audit.Events():
			if ev.EventType != kind {
				t.Fatalf("expected %s, got %s", kind, ev.EventType)
			}
			if ev.Username != "viewer" {
				t.Fatalf("%s: expected username viewer, got %q", kind, ev.Username)
			}
			if kind == audit.KindAccessDenied && ev.Metadata["path"] != "/system/role/create" {
				t.Fatalf("unexpected denied path %q", ev.Metadata["path"])
			}
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", kind)
		}
	}
}
