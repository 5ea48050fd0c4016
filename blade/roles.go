package blade

import (
	"context"
	"net/http"
)

func (c *Client) ListRoles(ctx context.Context, accessToken string) ([]Role, error) {
	var out []Role
	err := c.do(ctx, request{method: http.MethodGet, path: "/system/role/list", auth: authBearer, token: accessToken}, &out)
	return out, err
}

func (c *Client) GetRole(ctx context.Context, accessToken, id string) (Role, error) {
	var out Role
	err := c.do(ctx, request{method: http.MethodGet, path: "/system/role/" + id, auth: authBearer, token: accessToken}, &out)
	return out, err
}

func (c *Client) CreateRole(ctx context.Context, accessToken string, in RoleInput) (Role, error) {
	var out Role
	err := c.do(ctx, request{method: http.MethodPost, path: "/system/role/create", body: in, auth: authBearer, token: accessToken}, &out)
	return out, err
}

func (c *Client) UpdateRole(ctx context.Context, accessToken, id string, in RoleInput) (Role, error) {
	var out Role
	err := c.do(ctx, request{method: http.MethodPut, path: "/system/role/" + id, body: in, auth: authBearer, token: accessToken}, &out)
	return out, err
}

func (c *Client) DeleteRole(ctx context.Context, accessToken, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/system/role/" + id, auth: authBearer, token: accessToken}, nil)
}

// AssignPermissions replaces the permission set of a role.
func (c *Client) AssignPermissions(ctx context.Context, accessToken, roleID string, permissionIDs []string) error {
	if permissionIDs == nil {
		permissionIDs = []string{}
	}
	body := struct {
		PermissionIDs []string `json:"permissionIds"`
	}{PermissionIDs: permissionIDs}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/system/role/" + roleID + "/permissions",
		body:   body,
		auth:   authBearer,
		token:  accessToken,
	}, nil)
}

// RolePermissions returns the permission ids assigned to a role.
func (c *Client) RolePermissions(ctx context.Context, accessToken, roleID string) ([]string, error) {
	var out []string
	err := c.do(ctx, request{method: http.MethodGet, path: "/system/role/" + roleID + "/permissions", auth: authBearer, token: accessToken}, &out)
	return out, err
}

func (c *Client) ListPermissions(ctx context.Context, accessToken string) ([]Permission, error) {
	var out []Permission
	err := c.do(ctx, request{method: http.MethodGet, path: "/system/permission/list", auth: authBearer, token: accessToken}, &out)
	return out, err
}
