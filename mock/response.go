package mock

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/goBlade/internal/audit"
	"github.com/MrEthical07/goBlade/middleware"
)

const (
	msgUnauthorized = "Unauthorized Exception"
	msgForbidden    = "Forbidden Exception"
)

type envelope struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Error   any    `json:"error"`
	Message string `json:"message"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondOK(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, envelope{Code: 0, Data: data, Message: "ok"})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, envelope{Code: -1, Error: msg, Message: msg})
}

// guardError renders middleware rejections in the envelope format.
func (s *Server) guardError(w http.ResponseWriter, r *http.Request, status int, _ error) {
	if status == http.StatusForbidden {
		ev := audit.Event{EventType: audit.KindAccessDenied, Metadata: map[string]string{"path": r.URL.Path}}
		if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
			ev.Username, ev.UserID, ev.SessionID = p.Username, p.UserID, p.SessionID
		}
		s.emit(r.Context(), ev)
		respondError(w, status, msgForbidden)
		return
	}
	respondError(w, status, msgUnauthorized)
}
