package goBlade

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goBlade/access"
	"github.com/MrEthical07/goBlade/blade"
	"github.com/MrEthical07/goBlade/internal/audit"
	"github.com/MrEthical07/goBlade/jwt"
	"github.com/MrEthical07/goBlade/passcrypt"
	"github.com/MrEthical07/goBlade/store"
)

// LoginRequest is what the login form submits.
type LoginRequest struct {
	Username string
	Password string
	// CaptchaKey and CaptchaCode answer a captcha challenge. Both must be
	// set for the captcha grant to be used.
	CaptchaKey  string
	CaptchaCode string
	// OnSuccess replaces the navigation to the home page. Its error is
	// logged and does not fail the login.
	OnSuccess func(ctx context.Context) error
}

// LogoutOptions tune [SessionManager.Logout]. The zero value calls the
// server and adds the redirect parameter.
type LogoutOptions struct {
	// SkipRedirect leaves out the redirect query parameter. The login page
	// is still shown.
	SkipRedirect bool
	SkipAPICall  bool
}

// SessionManager owns the session of one signed-in user: tokens, profile,
// access codes and the expired flag. It is safe for concurrent use.
type SessionManager struct {
	config    Config
	api       AuthAPI
	refresher TokenRefresher
	profiles  ProfileFetcher
	encryptor passcrypt.Encryptor
	navigator Navigator
	notifier  Notifier
	persister store.Persister
	log       zerolog.Logger

	tokens *store.Tokens
	access *store.Access
	user   *store.User

	metrics *Metrics
	audit   *audit.Dispatcher

	loginLoading atomic.Bool
	refreshGroup singleflight.Group
	now          func() time.Time
}

// Login signs the user in. Only one login runs at a time; a concurrent call
// fails with [ErrLoginInProgress] without contacting the server.
func (m *SessionManager) Login(ctx context.Context, req LoginRequest) (store.UserProfile, error) {
	if !m.loginLoading.CompareAndSwap(false, true) {
		m.metrics.Inc(MetricLoginConcurrentRejected)
		return store.UserProfile{}, newAuthError("login", ErrLoginInProgress, nil)
	}
	defer m.loginLoading.Store(false)

	start := m.now()
	profile, err := m.login(ctx, req)
	m.metrics.Observe(MetricLoginLatency, m.now().Sub(start))
	if err != nil {
		m.metrics.Inc(MetricLoginFailure)
		switch {
		case errors.Is(err, ErrCredentialRejected):
			m.metrics.Inc(MetricLoginCredentialRejected)
		case errors.Is(err, ErrNetworkFailure):
			m.metrics.Inc(MetricLoginNetworkFailure)
		case errors.Is(err, ErrProfileFetchFailure):
			m.metrics.Inc(MetricProfileFetchFailure)
		}
		m.log.Warn().Err(err).Str("username", req.Username).Msg("login failed")
		m.emitAudit(ctx, AuditLoginFailure, req.Username, "", err)
		return store.UserProfile{}, err
	}

	m.metrics.Inc(MetricLoginSuccess)
	m.log.Info().Str("username", profile.Username).Str("user_id", profile.UserID).Msg("login succeeded")
	m.emitAudit(ctx, AuditLoginSuccess, profile.Username, profile.UserID, nil)
	return profile, nil
}

func (m *SessionManager) login(ctx context.Context, req LoginRequest) (store.UserProfile, error) {
	const op = "login"

	password := req.Password
	if password == "" {
		if m.config.Login.RejectEmptyPassword {
			return store.UserProfile{}, newAuthError(op, ErrCredentialRejected, errors.New("empty password"))
		}
		m.log.Warn().Str("username", req.Username).Msg("sending empty password unencrypted")
	} else {
		enc, err := m.encryptor.Encrypt(password)
		if err != nil {
			return store.UserProfile{}, newAuthError(op, ErrEncryptionFailed, err)
		}
		password = enc
	}

	params := blade.LoginParams{
		Account:  req.Username,
		Password: password,
		Type:     m.config.Login.AccountType,
	}
	if req.CaptchaKey != "" && req.CaptchaCode != "" {
		params.GrantType = "captcha"
		params.Key = req.CaptchaKey
		params.Captcha = req.CaptchaCode
	}

	res, err := m.api.Token(ctx, params)
	if err != nil {
		return store.UserProfile{}, newAuthError(op, remoteKind(err), err)
	}
	if res.AccessToken == "" {
		return store.UserProfile{}, newAuthError(op, ErrCredentialRejected, errors.New("reply has no access token"))
	}

	before := m.tokens.Snapshot()
	m.tokens.Set(res.AccessToken, res.RefreshToken)

	profile, codes, err := m.profiles.FetchProfile(ctx, res.AccessToken)
	if err != nil {
		m.tokens.Restore(before)
		return store.UserProfile{}, newAuthError(op, ErrProfileFetchFailure, err)
	}
	m.user.Set(profile)
	m.access.SetCodes(codes)

	switch {
	case m.tokens.SetExpired(false):
		// Re-login over an expired session keeps the user where they were.
		m.metrics.Inc(MetricSessionRecovered)
	case req.OnSuccess != nil:
		if err := req.OnSuccess(ctx); err != nil {
			m.log.Warn().Err(err).Msg("login success callback failed")
		}
	default:
		home := profile.HomePath
		if home == "" {
			home = m.config.Routes.DefaultHomePath
		}
		if err := m.navigator.Push(ctx, home); err != nil {
			m.metrics.Inc(MetricNavigationFailure)
			m.log.Warn().Err(err).Str("path", home).Msg("navigation after login failed")
		}
	}
	m.persist()

	if profile.RealName != "" {
		m.notifier.Notify(ctx, Notification{
			Type:    NotifySuccess,
			Title:   "Login successful",
			Message: "Welcome back: " + profile.RealName,
		})
	}
	return profile.Clone(), nil
}

// Logout ends the session. The server call is best effort and its failure
// is only logged. Local state is always cleared and the navigator is sent
// to the login page.
func (m *SessionManager) Logout(ctx context.Context, opts LogoutOptions) {
	profile, _ := m.user.Profile()

	if !opts.SkipAPICall {
		cctx, cancel := context.WithTimeout(ctx, m.config.Session.LogoutTimeout)
		err := m.api.Logout(cctx, m.tokens.AccessToken())
		cancel()
		if err != nil {
			m.metrics.Inc(MetricLogoutRemoteFailure)
			m.log.Warn().Err(err).Msg("remote logout failed")
		}
	}

	current := m.navigator.CurrentPath()
	m.reset()

	query := url.Values{}
	if !opts.SkipRedirect {
		query.Set("redirect", current)
	}
	if err := m.navigator.Replace(ctx, m.config.Routes.LoginPath, query); err != nil {
		m.metrics.Inc(MetricNavigationFailure)
		m.log.Warn().Err(err).Msg("navigation to login page failed")
	}

	m.metrics.Inc(MetricLogout)
	m.emitAudit(ctx, AuditLogout, profile.Username, profile.UserID, nil)
}

func (m *SessionManager) reset() {
	m.tokens.Clear()
	m.access.Clear()
	m.user.Clear()
	m.loginLoading.Store(false)
	if m.persister != nil {
		if err := m.persister.Clear(); err != nil {
			m.log.Warn().Err(err).Msg("clearing persisted session failed")
		}
	}
}

// MarkExpired raises the expired flag and keeps everything else.
func (m *SessionManager) MarkExpired() {
	if m.tokens.SetExpired(true) {
		return
	}
	m.metrics.Inc(MetricSessionExpired)
	m.persist()
	profile, _ := m.user.Profile()
	m.log.Info().Str("username", profile.Username).Msg("session marked expired")
	m.emitAudit(context.Background(), AuditSessionExpired, profile.Username, profile.UserID, nil)
}

// HandleUnauthorized reacts to a 401 from the server. With refresh enabled
// it first tries to renew the tokens; concurrent callers share one refresh.
// Otherwise, or when the refresh fails, the configured expired mode
// applies and [ErrSessionExpired] is returned.
func (m *SessionManager) HandleUnauthorized(ctx context.Context) error {
	const op = "reauthenticate"
	if m.tokens.AccessToken() == "" {
		return newAuthError(op, ErrNotLoggedIn, nil)
	}

	var cause error
	if m.config.Session.EnableRefreshToken {
		_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
			return nil, m.refresh(ctx)
		})
		if err == nil {
			return nil
		}
		cause = err
		m.log.Warn().Err(err).Msg("token refresh failed")
	}

	if m.config.Session.ExpiredMode == ExpiredModeModal {
		m.MarkExpired()
	} else {
		profile, _ := m.user.Profile()
		m.metrics.Inc(MetricSessionExpired)
		m.emitAudit(ctx, AuditSessionExpired, profile.Username, profile.UserID, cause)
		m.Logout(ctx, LogoutOptions{SkipAPICall: true})
	}
	return newAuthError(op, ErrSessionExpired, cause)
}

func (m *SessionManager) refresh(ctx context.Context) error {
	rt := m.tokens.RefreshToken()
	if rt == "" {
		return errors.New("no refresh token")
	}
	res, err := m.refresher.Refresh(ctx, rt)
	if err == nil && res.AccessToken == "" {
		err = errors.New("refresh reply has no access token")
	}
	if err != nil {
		m.metrics.Inc(MetricRefreshFailure)
		return err
	}
	if m.tokens.RefreshToken() != rt {
		// Logged out or re-logged in while the refresh was in flight.
		return errors.New("session changed during refresh")
	}

	next := res.RefreshToken
	if next == "" {
		next = rt
	}
	m.tokens.Set(res.AccessToken, next)
	if m.tokens.SetExpired(false) {
		m.metrics.Inc(MetricSessionRecovered)
	}
	m.metrics.Inc(MetricRefreshSuccess)
	m.persist()

	profile, _ := m.user.Profile()
	m.emitAudit(ctx, AuditSessionRefreshed, profile.Username, profile.UserID, nil)
	return nil
}

// AuthorizedDo runs fn with the current access token. A success clears the
// expired flag. An unauthorized failure goes through [HandleUnauthorized]
// and fn is retried once if the session was recovered.
func (m *SessionManager) AuthorizedDo(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	token := m.tokens.AccessToken()
	if token == "" {
		return newAuthError("request", ErrNotLoggedIn, nil)
	}

	err := fn(ctx, token)
	if err == nil {
		m.clearExpired()
		return nil
	}
	if !errors.Is(err, blade.ErrUnauthorized) {
		return err
	}
	if herr := m.HandleUnauthorized(ctx); herr != nil {
		return errors.Join(herr, err)
	}

	if err := fn(ctx, m.tokens.AccessToken()); err != nil {
		return err
	}
	m.clearExpired()
	return nil
}

func (m *SessionManager) clearExpired() {
	if m.tokens.SetExpired(false) {
		m.metrics.Inc(MetricSessionRecovered)
		m.persist()
	}
}

// CheckExpiry reads the access token's exp claim without verifying it and,
// when the token is within ExpirySkew of expiring, handles it as an
// unauthorized response. It reports whether the token was stale. Opaque
// tokens are never stale.
func (m *SessionManager) CheckExpiry(ctx context.Context) bool {
	token := m.tokens.AccessToken()
	if token == "" || m.tokens.Expired() {
		return false
	}
	exp, err := jwt.ExpiresAt(token)
	if err != nil {
		return false
	}
	if m.now().Add(m.config.Session.ExpirySkew).Before(exp) {
		return false
	}
	_ = m.HandleUnauthorized(ctx)
	return true
}

// StartExpiryWatch runs [CheckExpiry] every interval until ctx ends or the
// returned stop function is called. stop waits for the watcher to exit.
func (m *SessionManager) StartExpiryWatch(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.CheckExpiry(ctx)
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Restore reloads a persisted session. It reports false when there is
// nothing to restore.
func (m *SessionManager) Restore(ctx context.Context) (bool, error) {
	if m.persister == nil {
		return false, nil
	}
	snap, ok, err := m.persister.Load()
	if err != nil || !ok || snap.Tokens.AccessToken == "" {
		return false, err
	}

	m.tokens.Restore(snap.Tokens)
	if snap.Profile != nil {
		m.user.Set(*snap.Profile)
	} else {
		m.user.Clear()
	}
	m.access.SetCodes(snap.Codes)

	m.metrics.Inc(MetricSessionRestored)
	var username, userID string
	if snap.Profile != nil {
		username, userID = snap.Profile.Username, snap.Profile.UserID
	}
	m.emitAudit(ctx, AuditSessionRestored, username, userID, nil)
	return true, nil
}

func (m *SessionManager) persist() {
	if m.persister == nil {
		return
	}
	snap := store.Snapshot{
		Tokens: m.tokens.Snapshot(),
		Codes:  m.access.Codes().Codes(),
	}
	if p, ok := m.user.Profile(); ok {
		snap.Profile = &p
	}
	if err := m.persister.Save(snap); err != nil {
		m.log.Warn().Err(err).Msg("persisting session failed")
	}
}

func (m *SessionManager) AccessToken() string { return m.tokens.AccessToken() }

func (m *SessionManager) Expired() bool { return m.tokens.Expired() }

// LoginLoading reports whether a login is in flight.
func (m *SessionManager) LoginLoading() bool { return m.loginLoading.Load() }

func (m *SessionManager) Profile() (store.UserProfile, bool) { return m.user.Profile() }

// AccessCodes returns a copy of the current codes. It makes the manager an
// [access.Source].
func (m *SessionManager) AccessCodes() access.CodeSet { return m.access.Codes() }

// IsGranted applies the access rule to the current codes.
func (m *SessionManager) IsGranted(required ...string) bool {
	return access.IsGranted(required, m.access.Codes())
}

// Gate returns a gate that re-reads the current codes on every check.
func (m *SessionManager) Gate() *access.Gate { return access.NewGate(m) }

// Subscribe calls fn after every change of the access codes.
func (m *SessionManager) Subscribe(fn func(access.CodeSet)) (unsubscribe func()) {
	return m.access.Subscribe(fn)
}

func (m *SessionManager) MetricsSnapshot() MetricsSnapshot { return m.metrics.Snapshot() }

func (m *SessionManager) AuditDropped() uint64 { return m.audit.Dropped() }

// Close flushes pending audit events.
func (m *SessionManager) Close() { m.audit.Close() }
