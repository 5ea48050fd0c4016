package mock

import (
	"slices"

	"github.com/MrEthical07/goBlade/access"
	"github.com/MrEthical07/goBlade/blade"
)

// User is one entry of the fixed user table. Password is plaintext in the
// seed and is replaced by its hash when the server starts.
type User struct {
	UserID   string
	Username string
	Password string
	RealName string
	Avatar   string
	Roles    []string
	HomePath string
	Desc     string
	Codes    []string

	hash string
}

func (u User) clone() User {
	u.Roles = slices.Clone(u.Roles)
	u.Codes = slices.Clone(u.Codes)
	return u
}

func (u User) info() blade.UserInfo {
	return blade.UserInfo{
		UserID:   u.UserID,
		Username: u.Username,
		RealName: u.RealName,
		Avatar:   u.Avatar,
		Roles:    slices.Clone(u.Roles),
		HomePath: u.HomePath,
		Desc:     u.Desc,
	}
}

// DefaultUsers returns the seed table. The first user is the fallback
// identity for unknown credentials.
func DefaultUsers() []User {
	return []User{
		{
			UserID:   "1",
			Username: "admin",
			Password: "admin123",
			RealName: "Admin",
			Roles:    []string{"super"},
			HomePath: "/dashboard",
			Desc:     "Super administrator",
			Codes:    []string{access.Wildcard},
		},
		{
			UserID:   "2",
			Username: "operator",
			Password: "operator123",
			RealName: "Operator",
			Roles:    []string{"admin"},
			HomePath: "/system/role",
			Desc:     "Role administrator",
			Codes:    []string{"system:role:list", "system:role:edit", "system:user:update"},
		},
		{
			UserID:   "3",
			Username: "viewer",
			Password: "viewer123",
			RealName: "Viewer",
			Roles:    []string{"user"},
			HomePath: "/dashboard",
			Codes:    []string{"system:role:list"},
		},
	}
}

func defaultRoles() []blade.Role {
	return []blade.Role{
		{ID: "1", Name: "Super Admin", Code: "super", Description: "Every permission", Status: 1, Sort: 1},
		{ID: "2", Name: "Admin", Code: "admin", Description: "System administration", Status: 1, Sort: 2},
		{ID: "3", Name: "User", Code: "user", Description: "Read only", Status: 1, Sort: 3},
	}
}

func defaultPermissions() []blade.Permission {
	return []blade.Permission{
		{ID: "100", Name: "System", Code: "system", Type: "menu"},
		{ID: "101", ParentID: "100", Name: "Role list", Code: "system:role:list", Type: "button"},
		{ID: "102", ParentID: "100", Name: "Role edit", Code: "system:role:edit", Type: "button"},
		{ID: "103", ParentID: "100", Name: "User update", Code: "system:user:update", Type: "button"},
	}
}

func defaultRolePermissions() map[string][]string {
	return map[string][]string{
		"1": {"100", "101", "102", "103"},
		"2": {"100", "101", "102", "103"},
		"3": {"100", "101"},
	}
}
