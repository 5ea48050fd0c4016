package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrNotFound         = errors.New("session not found")
	// ErrRefreshReused means a refresh token other than the current one was
	// presented. The session has been deleted.
	ErrRefreshReused = errors.New("refresh token reused")
)

const (
	rotateStatusNotFound int64 = 0
	rotateStatusReused   int64 = 2
	rotateStatusRotated  int64 = 3
)

const deleteSessionScript = `
local uid = redis.call("HGET", KEYS[1], "uid")
if not uid then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[2] .. uid, ARGV[1])
return 1
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

const rotateRefreshScript = `
local uid = redis.call("HGET", KEYS[1], "uid")
if not uid then
  return 0
end
local current = redis.call("HGET", KEYS[1], "rid")
if current ~= ARGV[2] then
  redis.call("DEL", KEYS[1])
  redis.call("SREM", ARGV[4] .. uid, ARGV[1])
  return 2
end
redis.call("HSET", KEYS[1], "rid", ARGV[3], "exp", ARGV[6])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return 3
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

// Store persists sessions under prefix.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	return &Store{redis: rdb, prefix: prefix, now: time.Now}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + "sess:" + sessionID
}

func (s *Store) userPrefix() string {
	return s.prefix + "user:"
}

func (s *Store) userKey(userID string) string {
	return s.userPrefix() + userID
}

func (s *Store) revokedKey(tokenID string) string {
	return s.prefix + "revoked:" + tokenID
}

// Save writes sess and indexes it under its user. The session expires after
// ttl.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.SessionID == "" || sess.UserID == "" {
		return errors.New("session: id and user id are required")
	}
	if ttl <= 0 {
		return errors.New("session: ttl must be > 0")
	}
	key := s.key(sess.SessionID)
	userKey := s.userKey(sess.UserID)

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			"uid":      sess.UserID,
			"username": sess.Username,
			"roles":    strings.Join(sess.Roles, ","),
			"tenant":   sess.TenantID,
			"rid":      sess.RefreshID,
			"created":  sess.CreatedAt,
			"exp":      sess.ExpiresAt,
		})
		pipe.PExpire(ctx, key, ttl)
		pipe.SAdd(ctx, userKey, sess.SessionID)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the session or [ErrNotFound].
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 || fields["uid"] == "" {
		return nil, ErrNotFound
	}
	sess := &Session{
		SessionID: sessionID,
		UserID:    fields["uid"],
		Username:  fields["username"],
		TenantID:  fields["tenant"],
		RefreshID: fields["rid"],
	}
	if roles := fields["roles"]; roles != "" {
		sess.Roles = strings.Split(roles, ",")
	}
	sess.CreatedAt, _ = strconv.ParseInt(fields["created"], 10, 64)
	sess.ExpiresAt, _ = strconv.ParseInt(fields["exp"], 10, 64)
	return sess, nil
}

// Exists reports whether the session is still live.
func (s *Store) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := deleteSessionLua.Run(ctx, s.redis, []string{s.key(sessionID)}, sessionID, s.userPrefix()).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes every session of userID and returns how many
// existed. Sessions created while this runs may survive.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.ActiveSessionIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}

	var deleted *redis.IntCmd
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.Del(ctx, s.userKey(userID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(deleted.Val()), nil
}

// ActiveSessionIDs lists the indexed sessions of userID that still exist.
func (s *Store) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.redis.Pipeline()
	checks := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		checks[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	live := ids[:0]
	for i, id := range ids {
		if checks[i].Val() == 1 {
			live = append(live, id)
		}
	}
	return live, nil
}

// RotateRefresh replaces the session's refresh id presentedID with nextID and
// extends the session by ttl. Any other presented id deletes the session and
// yields [ErrRefreshReused].
func (s *Store) RotateRefresh(ctx context.Context, sessionID, presentedID, nextID string, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		return nil, errors.New("session: ttl must be > 0")
	}
	expires := s.now().Add(ttl).Unix()
	code, err := rotateRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sessionID)},
		sessionID,
		presentedID,
		nextID,
		s.userPrefix(),
		ttl.Milliseconds(),
		expires,
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch code {
	case rotateStatusNotFound:
		return nil, ErrNotFound
	case rotateStatusReused:
		return nil, ErrRefreshReused
	case rotateStatusRotated:
		return s.Get(ctx, sessionID)
	default:
		return nil, fmt.Errorf("%w: unknown refresh script status %d", ErrRedisUnavailable, code)
	}
}

// Revoke blocks an access token id until ttl elapses. A non-positive ttl is a
// no-op since the token has already expired.
func (s *Store) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}

// Ping measures a Redis round trip.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
