package mock

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrEthical07/goBlade/blade"
	"github.com/MrEthical07/goBlade/internal/random"
	"github.com/MrEthical07/goBlade/jwt"
	"github.com/MrEthical07/goBlade/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const captchaDigits = 4

// bladeToken is the OAuth2-style body of the blade-auth token endpoint.
type bladeToken struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       string `json:"user_id"`
	TenantID     string `json:"tenant_id"`
	UserName     string `json:"user_name"`
	Account      string `json:"account"`
	Avatar       string `json:"avatar"`
	Authority    string `json:"authority"`
	License      string `json:"license"`
}

func (s *Server) clientAuthorized(r *http.Request) bool {
	if s.config.ClientID == "" {
		return true
	}
	id, secret, ok := r.BasicAuth()
	if !ok {
		return false
	}
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(s.config.ClientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(s.config.ClientSecret)) == 1
	return idOK && secretOK
}

func (s *Server) handleBladeToken(w http.ResponseWriter, r *http.Request) {
	if !s.clientAuthorized(r) {
		respondError(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}
	ctx := r.Context()

	var (
		u    User
		pair tokenPair
		err  error
	)
	switch grant := r.FormValue("grantType"); grant {
	case "refresh_token":
		var claims *jwt.Claims
		pair, claims, err = s.rotate(ctx, r.FormValue("refreshToken"))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		var ok bool
		if u, ok = s.userByID(claims.UID); !ok {
			respondError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		u.Username = claims.Username
	case "", "password", "captcha":
		if grant == "captcha" {
			ok, cerr := s.verifyCaptcha(ctx, r.FormValue("key"), r.FormValue("captcha"))
			if cerr != nil {
				s.writeAuthError(w, cerr)
				return
			}
			if !ok {
				respondError(w, http.StatusBadRequest, "Captcha is incorrect.")
				return
			}
		}
		account := r.FormValue("account")
		u, err = s.authenticate(ctx, account, s.decryptPassword(r.FormValue("password")), clientIP(r))
		if err != nil {
			s.writeAuthError(w, err)
			return
		}
		pair, err = s.startSession(ctx, u, tenantOf(r))
		if err != nil {
			s.logger.Error().Err(err).Msg("start session")
			respondError(w, http.StatusInternalServerError, "could not start session")
			return
		}
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported grant type %q", grant))
		return
	}

	respondJSON(w, http.StatusOK, bladeToken{
		AccessToken:  pair.access,
		TokenType:    "bearer",
		RefreshToken: pair.refresh,
		ExpiresIn:    int64(pair.accessExpires.Sub(s.now()).Seconds()),
		UserID:       u.UserID,
		TenantID:     tenantOf(r),
		UserName:     u.Username,
		Account:      u.Username,
		Avatar:       u.Avatar,
		Authority:    strings.Join(u.Roles, ","),
		License:      "powered by goBlade",
	})
}

// decryptPassword undoes SM2 encryption when a private key is configured.
// A password that does not decrypt becomes empty, which matches no user.
func (s *Server) decryptPassword(pw string) string {
	if s.decryptor == nil || pw == "" {
		return pw
	}
	plain, err := s.decryptor.Decrypt(pw)
	if err != nil {
		return ""
	}
	return plain
}

func (s *Server) captchaKey(key string) string {
	return s.config.KeyPrefix + "captcha:" + key
}

func (s *Server) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	code, err := random.Digits(captchaDigits)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not create captcha")
		return
	}
	key := uuid.NewString()
	if err := s.redis.Set(r.Context(), s.captchaKey(key), code, s.config.CaptchaTTL).Err(); err != nil {
		s.logger.Error().Err(err).Msg("store captcha")
		respondError(w, http.StatusServiceUnavailable, "could not create captcha")
		return
	}
	respondOK(w, blade.CaptchaResult{Key: key, Image: captchaImage(code)})
}

// verifyCaptcha consumes the answer for key. Each challenge is single use.
func (s *Server) verifyCaptcha(ctx context.Context, key, answer string) (bool, error) {
	if key == "" || answer == "" {
		return false, nil
	}
	code, err := s.redis.GetDel(ctx, s.captchaKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.EqualFold(code, strings.TrimSpace(answer)), nil
}

func (s *Server) handleBladeLogout(w http.ResponseWriter, r *http.Request) {
	if !s.clientAuthorized(r) {
		respondError(w, http.StatusUnauthorized, "invalid client credentials")
		return
	}
	if token, ok := middleware.TokenFromRequest(r); ok {
		if err := s.endSession(r.Context(), token); err != nil {
			s.logger.Warn().Err(err).Msg("revoke access token")
		}
	}
	respondOK(w, nil)
}

func captchaImage(code string) string {
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="100" height="40">`+
		`<rect width="100%%" height="100%%" fill="#f2f2f2"/>`+
		`<text x="50" y="27" font-size="22" font-family="monospace" text-anchor="middle" fill="#333">%s</text></svg>`, code)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
