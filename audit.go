package goBlade

import (
	"context"

	"github.com/MrEthical07/goBlade/internal/audit"
)

type (
	AuditEvent = audit.Event
	AuditSink  = audit.Sink
)

// Audit event kinds.
const (
	AuditLoginSuccess     = audit.KindLoginSuccess
	AuditLoginFailure     = audit.KindLoginFailure
	AuditLogout           = audit.KindLogout
	AuditSessionExpired   = audit.KindSessionExpired
	AuditSessionRefreshed = audit.KindSessionRefreshed
	AuditSessionRestored  = audit.KindSessionRestored
)

func NewChannelSink(buffer int) *audit.ChannelSink { return audit.NewChannelSink(buffer) }

func (m *SessionManager) emitAudit(ctx context.Context, kind, username, userID string, err error) {
	if m.audit == nil {
		return
	}
	ev := AuditEvent{EventType: kind, Username: username, UserID: userID, Success: err == nil}
	if err != nil {
		ev.Error = err.Error()
	}
	m.audit.Emit(ctx, ev)
}
