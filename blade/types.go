package blade

import "encoding/json"

// LoginParams are the query parameters of the token endpoint.
type LoginParams struct {
	Account   string
	Password  string
	Type      string
	GrantType string
	// Key and Captcha answer a captcha challenge obtained from [Client.Captcha].
	Key     string
	Captcha string
}

// LoginResult is the token endpoint's reply.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	TenantID     string `json:"tenantId"`
	OauthID      string `json:"oauthId"`
	Avatar       string `json:"avatar"`
	Authority    string `json:"authority"`
	UserName     string `json:"userName"`
	Account      string `json:"account"`
	ExpiresIn    int64  `json:"expiresIn"`
	License      string `json:"license"`
}

// UnmarshalJSON accepts both the camelCase form and the OAuth2 snake_case
// form some blade deployments return.
func (r *LoginResult) UnmarshalJSON(data []byte) error {
	type camel LoginResult
	var wire struct {
		camel
		AccessTokenSnake  string `json:"access_token"`
		TokenTypeSnake    string `json:"token_type"`
		RefreshTokenSnake string `json:"refresh_token"`
		UserIDSnake       string `json:"user_id"`
		TenantIDSnake     string `json:"tenant_id"`
		OauthIDSnake      string `json:"oauth_id"`
		UserNameSnake     string `json:"user_name"`
		ExpiresInSnake    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = LoginResult(wire.camel)
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&r.AccessToken, wire.AccessTokenSnake)
	fill(&r.TokenType, wire.TokenTypeSnake)
	fill(&r.RefreshToken, wire.RefreshTokenSnake)
	fill(&r.UserID, wire.UserIDSnake)
	fill(&r.TenantID, wire.TenantIDSnake)
	fill(&r.OauthID, wire.OauthIDSnake)
	fill(&r.UserName, wire.UserNameSnake)
	if r.ExpiresIn == 0 {
		r.ExpiresIn = wire.ExpiresInSnake
	}
	return nil
}

// CaptchaResult is a captcha challenge. Image is a data URI.
type CaptchaResult struct {
	Key   string `json:"key"`
	Image string `json:"image"`
}

// UserInfo is the profile returned by the user info endpoint.
type UserInfo struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	RealName string   `json:"realName"`
	Avatar   string   `json:"avatar"`
	Roles    []string `json:"roles"`
	HomePath string   `json:"homePath"`
	Desc     string   `json:"desc,omitempty"`
}

// Role is a role record of the system administration API.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Status      int    `json:"status"`
	Sort        int    `json:"sort,omitempty"`
}

// RoleInput is the writable part of a [Role].
type RoleInput struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Status      int    `json:"status"`
	Sort        int    `json:"sort,omitempty"`
}

// Permission is one entry of the permission catalogue.
type Permission struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Type     string `json:"type,omitempty"`
}

type envelope struct {
	Code    *int            `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Error   json.RawMessage `json:"error"`
	Success *bool           `json:"success"`
}
