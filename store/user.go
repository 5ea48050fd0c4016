package store

import (
	"slices"
	"sync"
)

// UserProfile describes the signed-in user. It is created by the profile fetch
// that follows a successful login and discarded on logout.
type UserProfile struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	RealName string   `json:"realName"`
	Avatar   string   `json:"avatar,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	HomePath string   `json:"homePath,omitempty"`
}

// Clone returns a deep copy of p.
func (p UserProfile) Clone() UserProfile {
	p.Roles = slices.Clone(p.Roles)
	return p
}

// User holds at most one profile.
type User struct {
	mu      sync.RWMutex
	profile *UserProfile
}

func (u *User) Set(p UserProfile) {
	cp := p.Clone()
	u.mu.Lock()
	u.profile = &cp
	u.mu.Unlock()
}

// Profile returns a copy of the stored profile and whether one is set.
func (u *User) Profile() (UserProfile, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.profile == nil {
		return UserProfile{}, false
	}
	return u.profile.Clone(), true
}

func (u *User) Clear() {
	u.mu.Lock()
	u.profile = nil
	u.mu.Unlock()
}
