package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/goBlade/access"
	"github.com/MrEthical07/goBlade/blade"
	"github.com/MrEthical07/goBlade/internal/audit"
	"github.com/MrEthical07/goBlade/internal/random"
	"github.com/MrEthical07/goBlade/internal/rate"
	"github.com/MrEthical07/goBlade/jwt"
	"github.com/MrEthical07/goBlade/middleware"
	"github.com/MrEthical07/goBlade/passcrypt"
	"github.com/MrEthical07/goBlade/password"
	"github.com/MrEthical07/goBlade/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

var (
	errBadCredentials = errors.New("username or password is incorrect")
	errTokenRevoked   = errors.New("token revoked")
	errUnknownUser    = errors.New("unknown user")
)

// Server is the mock auth server. Build it with [New].
type Server struct {
	config    Config
	logger    zerolog.Logger
	redis     redis.UniversalClient
	users     []User
	byName    map[string]int
	byID      map[string]int
	hasher    *password.Hasher
	tokens    *jwt.Manager
	sessions  *session.Store
	limiter   *rate.Limiter
	decryptor *passcrypt.SM2Decryptor
	cookies   *securecookie.SecureCookie
	roles     *roleStore
	auditSink audit.Sink
	audit     *audit.Dispatcher
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	handler   http.Handler
	now       func() time.Time
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAuditSink receives login, logout, refresh and access denied events.
// Without one they are logged.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Server) { s.auditSink = sink }
}

// WithRegistry publishes request metrics into reg instead of a private
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// New hashes the user table and wires the server onto rdb.
func New(cfg Config, rdb redis.UniversalClient, opts ...Option) (*Server, error) {
	if rdb == nil {
		return nil, errors.New("mock: redis client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		logger:   zerolog.Nop(),
		redis:    rdb,
		byName:   make(map[string]int, len(cfg.Users)),
		byID:     make(map[string]int, len(cfg.Users)),
		sessions: session.NewStore(rdb, cfg.KeyPrefix),
		roles:    newRoleStore(),
		registry: prometheus.NewRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auditSink == nil {
		s.auditSink = audit.ZerologSink{Logger: s.logger}
	}
	s.audit = audit.NewDispatcher(audit.Config{Enabled: true, BufferSize: 256, DropIfFull: true}, s.auditSink)

	hasher, err := password.NewHasher(cfg.Hashing)
	if err != nil {
		return nil, fmt.Errorf("mock: password hashing: %w", err)
	}
	s.hasher = hasher
	for i, seed := range cfg.Users {
		u := seed.clone()
		u.hash, err = hasher.Hash(seed.Password)
		if err != nil {
			return nil, fmt.Errorf("mock: hash password of %q: %w", seed.Username, err)
		}
		u.Password = ""
		s.users = append(s.users, u)
		s.byName[u.Username] = i
		s.byID[u.UserID] = i
	}

	tokenCfg := cfg.Tokens
	if tokenCfg.SigningMethod == jwt.MethodHS256 && len(tokenCfg.PrivateKey) == 0 {
		secret, err := random.Bytes(32)
		if err != nil {
			return nil, fmt.Errorf("mock: generate signing secret: %w", err)
		}
		tokenCfg.PrivateKey = secret
	}
	s.tokens, err = jwt.NewManager(tokenCfg)
	if err != nil {
		return nil, fmt.Errorf("mock: token manager: %w", err)
	}

	if cfg.SM2PrivateKey != "" {
		s.decryptor, err = passcrypt.NewSM2Decryptor(cfg.SM2PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("mock: sm2 private key: %w", err)
		}
	}

	if cfg.StrictCredentials {
		s.limiter, err = rate.New(rdb, rate.Config{
			MaxAttempts: cfg.LoginAttempts,
			Window:      cfg.LoginWindow,
			Prefix:      cfg.KeyPrefix,
			PerIP:       true,
		})
		if err != nil {
			return nil, err
		}
	}

	hashKey, blockKey := cfg.CookieHashKey, cfg.CookieBlockKey
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		blockKey = securecookie.GenerateRandomKey(32)
	}
	s.cookies = securecookie.New(hashKey, blockKey)
	s.cookies.MaxAge(int(s.tokens.TTL(jwt.TypeRefresh).Seconds()))

	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "goblade_mock_http_requests_total",
		Help: "Requests served by the mock auth server.",
	}, []string{"method", "route", "code"})
	s.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goblade_mock_http_request_duration_seconds",
		Help:    "Mock auth server request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	if err := s.registry.Register(s.requests); err != nil {
		return nil, err
	}
	if err := s.registry.Register(s.latency); err != nil {
		return nil, err
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the traced router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Tokens exposes the signing manager, mainly for tests.
func (s *Server) Tokens() *jwt.Manager {
	return s.tokens
}

// Close flushes pending audit events.
func (s *Server) Close() {
	s.audit.Close()
}

// ListenAndServe serves on Config.Addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Bool("strict", s.config.StrictCredentials).Msg("starting mock auth server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	allowed := s.config.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", blade.HeaderBladeAuth, blade.HeaderTenantID},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	if s.config.RequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(s.config.RequestsPerMinute, time.Minute))
	}
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	guard := middleware.Guard(s, s.config.GuardMode, middleware.WithErrorWriter(s.guardError))
	need := func(codes ...string) func(http.Handler) http.Handler {
		return middleware.RequireCodes(codes, middleware.WithErrorWriter(s.guardError))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.With(guard).Get("/codes", s.handleCodes)
	})
	r.With(guard).Get("/auth/codes", s.handleCodes)
	r.With(guard).Get("/api/user/info", s.handleUserInfo)
	r.With(guard).Get("/user/info", s.handleUserInfo)

	r.Route("/blade-auth", func(r chi.Router) {
		r.Post("/token", s.handleBladeToken)
		r.Get("/captcha", s.handleCaptcha)
		r.Post("/logout", s.handleBladeLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.With(need("system:role:list")).Get("/system/role/list", s.handleRoleList)
		r.With(need("system:role:edit")).Post("/system/role/create", s.handleRoleCreate)
		r.With(need("system:role:list")).Get("/system/role/{id}", s.handleRoleGet)
		r.With(need("system:role:edit")).Put("/system/role/{id}", s.handleRoleUpdate)
		r.With(need("system:role:edit")).Delete("/system/role/{id}", s.handleRoleDelete)
		r.With(need("system:role:list")).Get("/system/role/{id}/permissions", s.handleRolePermissions)
		r.With(need("system:role:edit")).Post("/system/role/{id}/permissions", s.handleAssignPermissions)
		r.With(need("system:role:list")).Get("/system/permission/list", s.handlePermissionList)
	})

	return otelhttp.NewHandler(r, "goblade-mock")
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.latency.WithLabelValues(route).Observe(elapsed.Seconds())

		ev := s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("request_id", chimw.GetReqID(r.Context()))
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			ev = ev.Str("trace_id", sc.TraceID().String())
		}
		ev.Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Ping(r.Context()); err != nil {
		http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Verify implements [middleware.Verifier]. Strict mode also requires a live
// session and an unrevoked token id.
func (s *Server) Verify(ctx context.Context, token string, mode middleware.Mode) (*middleware.Principal, error) {
	claims, err := s.tokens.Parse(jwt.TypeAccess, token)
	if err != nil {
		return nil, err
	}
	if mode == middleware.ModeStrict {
		revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errTokenRevoked
		}
		live, err := s.sessions.Exists(ctx, claims.SID)
		if err != nil {
			return nil, err
		}
		if !live {
			return nil, session.ErrNotFound
		}
	}
	u, ok := s.userByID(claims.UID)
	if !ok {
		return nil, errUnknownUser
	}
	return &middleware.Principal{
		UserID:    claims.UID,
		Username:  claims.Username,
		Roles:     claims.Roles,
		SessionID: claims.SID,
		Codes:     access.NewCodeSet(u.Codes...),
	}, nil
}

func (s *Server) userByID(id string) (User, bool) {
	i, ok := s.byID[id]
	if !ok {
		return User{}, false
	}
	return s.users[i].clone(), true
}

// authenticate resolves credentials. Outside strict mode it never fails:
// unknown credentials become the first user renamed to username.
func (s *Server) authenticate(ctx context.Context, username, pw, ip string) (User, error) {
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, username, ip); err != nil {
			return User{}, err
		}
	}

	if i, ok := s.byName[username]; ok {
		match, err := s.hasher.Verify(pw, s.users[i].hash)
		if err == nil && match {
			if s.limiter != nil {
				if err := s.limiter.Reset(ctx, username); err != nil {
					s.logger.Warn().Err(err).Msg("reset login throttle")
				}
			}
			s.emit(ctx, audit.Event{EventType: audit.KindLoginSuccess, Username: username, UserID: s.users[i].UserID, Success: true})
			return s.users[i].clone(), nil
		}
	}

	if s.config.StrictCredentials {
		if _, err := s.limiter.Fail(ctx, username, ip); err != nil {
			s.logger.Warn().Err(err).Msg("record failed login")
		}
		s.emit(ctx, audit.Event{EventType: audit.KindLoginFailure, Username: username, Error: errBadCredentials.Error(),
			Metadata: map[string]string{"ip": ip}})
		return User{}, errBadCredentials
	}

	name := username
	if name == "" {
		name = "Admin"
	}
	u := s.users[0].clone()
	u.Username = name
	u.RealName = name
	s.emit(ctx, audit.Event{EventType: audit.KindLoginSuccess, Username: name, UserID: u.UserID, Success: true,
		Metadata: map[string]string{"fallback": "true"}})
	return u, nil
}

type tokenPair struct {
	access        string
	refresh       string
	accessExpires time.Time
	sessionID     string
}

func (s *Server) startSession(ctx context.Context, u User, tenantID string) (tokenPair, error) {
	sid := uuid.NewString()
	sub := jwt.Subject{UserID: u.UserID, Username: u.Username, Roles: u.Roles, SessionID: sid}
	pair, refreshClaims, err := s.issuePair(sub)
	if err != nil {
		return tokenPair{}, err
	}
	err = s.sessions.Save(ctx, &session.Session{
		SessionID: sid,
		UserID:    u.UserID,
		Username:  u.Username,
		Roles:     u.Roles,
		TenantID:  tenantID,
		RefreshID: refreshClaims.ID,
		CreatedAt: s.now().Unix(),
		ExpiresAt: refreshClaims.ExpiresAt.Unix(),
	}, s.tokens.TTL(jwt.TypeRefresh))
	if err != nil {
		return tokenPair{}, err
	}
	return pair, nil
}

// rotate redeems a refresh token once and returns the next pair.
func (s *Server) rotate(ctx context.Context, refreshToken string) (tokenPair, *jwt.Claims, error) {
	claims, err := s.tokens.Parse(jwt.TypeRefresh, refreshToken)
	if err != nil {
		return tokenPair{}, nil, err
	}
	sub := jwt.Subject{UserID: claims.UID, Username: claims.Username, Roles: claims.Roles, SessionID: claims.SID}
	pair, next, err := s.issuePair(sub)
	if err != nil {
		return tokenPair{}, nil, err
	}
	if _, err := s.sessions.RotateRefresh(ctx, claims.SID, claims.ID, next.ID, s.tokens.TTL(jwt.TypeRefresh)); err != nil {
		if errors.Is(err, session.ErrRefreshReused) {
			s.logger.Warn().Str("sid", claims.SID).Str("uid", claims.UID).Msg("refresh token reused, session revoked")
			s.emit(ctx, audit.Event{EventType: audit.KindSessionExpired, Username: claims.Username, UserID: claims.UID,
				SessionID: claims.SID, Error: err.Error()})
		}
		return tokenPair{}, nil, err
	}
	s.emit(ctx, audit.Event{EventType: audit.KindSessionRefreshed, Username: claims.Username, UserID: claims.UID,
		SessionID: claims.SID, Success: true})
	return pair, claims, nil
}

func (s *Server) issuePair(sub jwt.Subject) (tokenPair, *jwt.Claims, error) {
	accessToken, accessClaims, err := s.tokens.Issue(jwt.TypeAccess, sub)
	if err != nil {
		return tokenPair{}, nil, err
	}
	refreshToken, refreshClaims, err := s.tokens.Issue(jwt.TypeRefresh, sub)
	if err != nil {
		return tokenPair{}, nil, err
	}
	return tokenPair{
		access:        accessToken,
		refresh:       refreshToken,
		accessExpires: accessClaims.ExpiresAt.Time,
		sessionID:     sub.SessionID,
	}, refreshClaims, nil
}

// endSession revokes accessToken until it expires and drops its session.
// Invalid tokens are ignored.
func (s *Server) endSession(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Parse(jwt.TypeAccess, accessToken)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Sub(s.now())); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, claims.SID); err != nil {
		return err
	}
	s.emit(ctx, audit.Event{EventType: audit.KindLogout, Username: claims.Username, UserID: claims.UID,
		SessionID: claims.SID, Success: true})
	return nil
}

func (s *Server) emit(ctx context.Context, ev audit.Event) {
	s.audit.Emit(context.WithoutCancel(ctx), ev)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func tenantOf(r *http.Request) string {
	if t := r.Header.Get(blade.HeaderTenantID); t != "" {
		return t
	}
	return "000000"
}
