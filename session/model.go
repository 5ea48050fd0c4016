package session

// Session is one logged-in device of a user.
type Session struct {
	SessionID string
	UserID    string
	Username  string
	Roles     []string
	TenantID  string
	// RefreshID is the jti of the refresh token that may rotate this session.
	RefreshID string

	CreatedAt int64
	ExpiresAt int64
}
