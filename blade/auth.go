package blade

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Token exchanges credentials for tokens. Parameters travel in the query
// string with a form content type, as the blade-auth endpoint expects.
func (c *Client) Token(ctx context.Context, p LoginParams) (LoginResult, error) {
	q := url.Values{}
	q.Set("account", p.Account)
	q.Set("password", p.Password)
	q.Set("type", p.Type)
	q.Set("grantType", p.GrantType)
	if p.Key != "" {
		q.Set("key", p.Key)
	}
	if p.Captcha != "" {
		q.Set("captcha", p.Captcha)
	}

	var out LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/blade-auth/token",
		query:  q,
		auth:   authBasic,
		form:   true,
	}, &out)
	return out, err
}

// Refresh trades a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	if refreshToken == "" {
		return LoginResult{}, &APIError{Status: http.StatusUnauthorized, Message: "missing refresh token"}
	}
	q := url.Values{}
	q.Set("grantType", "refresh_token")
	q.Set("refreshToken", refreshToken)
	q.Set("scope", "all")

	var out LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/blade-auth/token",
		query:  q,
		auth:   authBasic,
		form:   true,
	}, &out)
	return out, err
}

// Captcha fetches a new captcha challenge.
func (c *Client) Captcha(ctx context.Context) (CaptchaResult, error) {
	var out CaptchaResult
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/blade-auth/captcha",
		auth:   authBasic,
	}, &out)
	return out, err
}

// Logout invalidates accessToken on the server.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/blade-auth/logout",
		auth:   authBasicBlade,
		token:  accessToken,
	}, nil)
}

// AccessCodes returns the capability codes granted to the token's user.
func (c *Client) AccessCodes(ctx context.Context, accessToken string) ([]string, error) {
	var out []string
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/codes",
		auth:   authBearer,
		token:  accessToken,
	}, &out)
	if errors.Is(err, errEmptyPayload) {
		// An empty list is sometimes sent as null.
		return nil, nil
	}
	return out, err
}

// UserInfo returns the profile of the token's user.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (UserInfo, error) {
	var out UserInfo
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/user/info",
		auth:   authBearer,
		token:  accessToken,
	}, &out)
	return out, err
}
