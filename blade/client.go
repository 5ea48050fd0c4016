package blade

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// HeaderBladeAuth carries the user token on blade-auth logout.
	HeaderBladeAuth = "Blade-Auth"
	// HeaderTenantID selects the tenant on multi-tenant deployments.
	HeaderTenantID = "Tenant-Id"

	maxBodyBytes = 4 << 20
)

var errEmptyPayload = errors.New("empty payload")

// Config describes how to reach the API.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TenantID     string
	Timeout      time.Duration
	UserAgent    string
	// HTTPClient overrides the default otelhttp-instrumented client. Timeout
	// is ignored when it is set.
	HTTPClient *http.Client
}

// DefaultConfig returns the client credentials the console ships with.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:5320",
		ClientID:     "saber",
		ClientSecret: "saber_secret",
		TenantID:     "000000",
		Timeout:      10 * time.Second,
		UserAgent:    "goBlade",
	}
}

// Client calls the blade-auth and system administration endpoints. It is safe
// for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	basic     string
	tenantID  string
	userAgent string
}

type authMode uint8

const (
	authNone authMode = iota
	authBasic
	authBearer
	authBasicBlade
)

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("blade: invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("blade: base url must be http or https, got %q", cfg.BaseURL)
	}
	if cfg.ClientID == "" {
		return nil, errors.New("blade: client id required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		base:      base,
		http:      hc,
		basic:     base64.StdEncoding.EncodeToString([]byte(cfg.ClientID + ":" + cfg.ClientSecret)),
		tenantID:  cfg.TenantID,
		userAgent: cfg.UserAgent,
	}, nil
}

// BasicCredential returns the value sent in the Authorization header of
// client-authenticated calls, without the "Basic " prefix.
func (c *Client) BasicCredential() string {
	return c.basic
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   authMode
	token  string
	form   bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	u := *c.base
	u.Path = c.base.Path + req.path
	u.RawPath = ""
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("blade: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	switch {
	case req.form:
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case req.body != nil:
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if c.tenantID != "" {
		httpReq.Header.Set(HeaderTenantID, c.tenantID)
	}
	switch req.auth {
	case authBasic:
		httpReq.Header.Set("Authorization", "Basic "+c.basic)
	case authBasicBlade:
		httpReq.Header.Set("Authorization", "Basic "+c.basic)
		httpReq.Header.Set(HeaderBladeAuth, "bearer "+req.token)
	case authBearer:
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	return decodeResponse(resp.StatusCode, data, out)
}

func decodeResponse(status int, body []byte, out any) error {
	body = bytes.TrimSpace(body)

	env, isEnvelope := parseEnvelope(body)
	if status >= 400 {
		apiErr := &APIError{Status: status}
		if isEnvelope {
			if env.Code != nil {
				apiErr.Code = *env.Code
			}
			apiErr.Message = env.message()
		} else if len(body) > 0 && len(body) < 512 && body[0] != '{' && body[0] != '[' {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	payload := body
	if isEnvelope {
		if !env.ok() {
			code := 0
			if env.Code != nil {
				code = *env.Code
			}
			return &APIError{Status: status, Code: code, Message: env.message()}
		}
		payload = env.Data
	}

	if out == nil {
		return nil
	}
	if len(payload) == 0 || string(payload) == "null" {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, errEmptyPayload)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func parseEnvelope(body []byte) (envelope, bool) {
	if len(body) == 0 || body[0] != '{' {
		return envelope{}, false
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return envelope{}, false
	}
	if _, ok := keys["code"]; !ok {
		return envelope{}, false
	}
	_, hasData := keys["data"]
	_, hasMessage := keys["message"]
	_, hasMsg := keys["msg"]
	if !hasData && !hasMessage && !hasMsg {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

func (e envelope) ok() bool {
	if e.Success != nil && !*e.Success {
		return false
	}
	return e.Code == nil || *e.Code == 0 || *e.Code == http.StatusOK
}

func (e envelope) message() string {
	var errText string
	if len(e.Error) > 0 {
		_ = json.Unmarshal(e.Error, &errText)
	}
	for _, m := range []string{e.Message, e.Msg, errText} {
		if m != "" {
			return m
		}
	}
	return ""
}
