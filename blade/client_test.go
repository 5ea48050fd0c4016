package blade

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestTokenSendsQueryParamsAndBasicAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/blade-auth/token" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Basic c2FiZXI6c2FiZXJfc2VjcmV0" {
			t.Errorf("unexpected basic credential %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", got)
		}
		if got := r.Header.Get(HeaderTenantID); got != "000000" {
			t.Errorf("unexpected tenant %q", got)
		}
		q := r.URL.Query()
		if q.Get("account") != "admin" || q.Get("password") != "04abcd" || q.Get("type") != "account" {
			t.Errorf("unexpected query %v", q)
		}
		if _, ok := q["grantType"]; !ok || q.Get("grantType") != "" {
			t.Errorf("expected empty grantType parameter, got %v", q)
		}
		if q.Has("key") || q.Has("captcha") {
			t.Errorf("captcha parameters must be omitted when blank: %v", q)
		}
		_, _ = io.WriteString(w, `{"access_token":"tok","refresh_token":"ref","token_type":"bearer","expires_in":3600,"account":"admin"}`)
	})

	res, err := c.Token(context.Background(), LoginParams{Account: "admin", Password: "04abcd", Type: "account"})
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if res.AccessToken != "tok" || res.RefreshToken != "ref" || res.ExpiresIn != 3600 || res.Account != "admin" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTokenUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":200,"success":true,"data":{"accessToken":"tok","userName":"Admin"},"msg":"ok"}`)
	})
	res, err := c.Token(context.Background(), LoginParams{Account: "admin"})
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if res.AccessToken != "tok" || res.UserName != "Admin" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestEnvelopeFailureIsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":400,"data":null,"msg":"bad password"}`)
	})
	_, err := c.Token(context.Background(), LoginParams{Account: "admin"})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "bad password" || apiErr.Code != 400 {
		t.Fatalf("unexpected api error %#v", apiErr)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrRejected},
		{http.StatusBadRequest, ErrRejected},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, `{"code":-1,"data":null,"error":"nope","message":"nope"}`)
		})
		_, err := c.UserInfo(context.Background(), "tok")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		for _, other := range []error{ErrUnauthorized, ErrRejected, ErrServer} {
			if other != tc.want && errors.Is(err, other) {
				t.Fatalf("status %d: error also matches %v", tc.status, other)
			}
		}
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = url
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Captcha(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	if _, err := c.Captcha(context.Background()); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestLogoutSendsBladeAuthHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blade-auth/logout" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get(HeaderBladeAuth); got != "bearer tok" {
			t.Errorf("unexpected Blade-Auth %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Basic c2FiZXI6c2FiZXJfc2VjcmV0" {
			t.Errorf("unexpected Authorization %q", got)
		}
		w.WriteHeader(http.StatusOK)
	})
	if err := c.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
}

func TestAccessCodesBearerAndNullData(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected Authorization %q", got)
		}
		if calls == 1 {
			_, _ = io.WriteString(w, `["system:role:list","*"]`)
			return
		}
		_, _ = io.WriteString(w, `{"code":0,"data":null,"message":"ok"}`)
	})

	codes, err := c.AccessCodes(context.Background(), "tok")
	if err != nil || !slices.Equal(codes, []string{"system:role:list", "*"}) {
		t.Fatalf("unexpected codes %v err=%v", codes, err)
	}
	codes, err = c.AccessCodes(context.Background(), "tok")
	if err != nil || codes != nil {
		t.Fatalf("expected nil codes for null data, got %v err=%v", codes, err)
	}
}

func TestRoleEndpoints(t *testing.T) {
	var gotBody map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /system/role/list":
			_, _ = io.WriteString(w, `{"code":0,"data":[{"id":"1","name":"Super","code":"super"}],"message":"ok"}`)
		case "POST /system/role/7/permissions":
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = io.WriteString(w, `{"code":0,"data":null,"message":"ok"}`)
		case "DELETE /system/role/7":
			_, _ = io.WriteString(w, `{"code":0,"data":null,"message":"ok"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	roles, err := c.ListRoles(context.Background(), "tok")
	if err != nil || len(roles) != 1 || roles[0].Code != "super" {
		t.Fatalf("unexpected roles %+v err=%v", roles, err)
	}
	if err := c.AssignPermissions(context.Background(), "tok", "7", []string{"p1", "p2"}); err != nil {
		t.Fatalf("AssignPermissions: %v", err)
	}
	if !slices.Equal(gotBody["permissionIds"], []string{"p1", "p2"}) {
		t.Fatalf("unexpected body %v", gotBody)
	}
	if err := c.DeleteRole(context.Background(), "tok", "7"); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "ftp://example.com"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected scheme error")
	}
}
