package mock

import (
	"errors"
	"io"
	"net/http"

	"github.com/MrEthical07/goBlade/blade"
	"github.com/MrEthical07/goBlade/internal/rate"
	"github.com/MrEthical07/goBlade/jwt"
	"github.com/MrEthical07/goBlade/middleware"
)

type loginResponse struct {
	blade.UserInfo
	AccessToken string `json:"accessToken"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.authenticate(r.Context(), body.Username, body.Password, clientIP(r))
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	pair, err := s.startSession(r.Context(), u, tenantOf(r))
	if err != nil {
		s.logger.Error().Err(err).Msg("start session")
		respondError(w, http.StatusInternalServerError, "could not start session")
		return
	}
	if err := s.setRefreshCookie(w, pair.refresh); err != nil {
		s.logger.Error().Err(err).Msg("encode refresh cookie")
		respondError(w, http.StatusInternalServerError, "could not start session")
		return
	}
	s.logger.Info().Str("username", u.Username).Str("sid", pair.sessionID).Msg("login")
	respondOK(w, loginResponse{UserInfo: u.info(), AccessToken: pair.access})
}

func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadCredentials):
		respondError(w, http.StatusForbidden, "Username or password is incorrect.")
	case errors.Is(err, rate.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, "Too many failed attempts, try again later.")
	default:
		s.logger.Error().Err(err).Msg("authenticate")
		respondError(w, http.StatusServiceUnavailable, "authentication unavailable")
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, err := s.refreshFromCookie(r)
	if err != nil {
		s.clearRefreshCookie(w)
		respondError(w, http.StatusForbidden, msgForbidden)
		return
	}
	pair, _, err := s.rotate(r.Context(), token)
	if err != nil {
		s.clearRefreshCookie(w)
		respondError(w, http.StatusForbidden, msgForbidden)
		return
	}
	if err := s.setRefreshCookie(w, pair.refresh); err != nil {
		respondError(w, http.StatusInternalServerError, "could not renew session")
		return
	}
	respondOK(w, pair.access)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token, err := s.refreshFromCookie(r); err == nil {
		if claims, err := s.tokens.Parse(jwt.TypeRefresh, token); err == nil {
			if err := s.sessions.Delete(ctx, claims.SID); err != nil {
				s.logger.Warn().Err(err).Msg("drop refresh session")
			}
		}
	}
	if token, ok := middleware.TokenFromRequest(r); ok {
		if err := s.endSession(ctx, token); err != nil {
			s.logger.Warn().Err(err).Msg("revoke access token")
		}
	}
	s.clearRefreshCookie(w)
	respondOK(w, "")
}

func (s *Server) handleCodes(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	u, ok := s.userByID(p.UserID)
	if !ok {
		respondError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	codes := u.Codes
	if codes == nil {
		codes = []string{}
	}
	respondOK(w, codes)
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	u, ok := s.userByID(p.UserID)
	if !ok {
		respondError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	info := u.info()
	if p.Username != "" && p.Username != u.Username {
		// Fallback logins keep the name they were made with.
		info.Username = p.Username
		info.RealName = p.Username
	}
	respondOK(w, info)
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) error {
	encoded, err := s.cookies.Encode(s.config.CookieName, token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(s.tokens.TTL(jwt.TypeRefresh).Seconds()),
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) refreshFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(s.config.CookieName)
	if err != nil {
		return "", err
	}
	var token string
	if err := s.cookies.Decode(s.config.CookieName, c.Value, &token); err != nil {
		return "", err
	}
	return token, nil
}
