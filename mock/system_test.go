package mock

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/MrEthical07/goBlade/blade"
)

func (h *harness) token(t *testing.T, c *blade.Client, account, pw string) string {
	t.Helper()
	res, err := c.Token(context.Background(), blade.LoginParams{Account: account, Password: pw})
	if err != nil {
		t.Fatalf("token for %s: %v", account, err)
	}
	return res.AccessToken
}

func TestRoleAdministrationGate(t *testing.T) {
	h := newHarness(t, nil)
	c := h.client(t)
	ctx := context.Background()
	viewer := h.token(t, c, "viewer", "viewer123")
	operator := h.token(t, c, "operator", "operator123")

	roles, err := c.ListRoles(ctx, viewer)
	if err != nil {
		t.Fatalf("viewer list: %v", err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected 3 fixture roles, got %d", len(roles))
	}
	if _, err := c.CreateRole(ctx, viewer, blade.RoleInput{Name: "Auditor", Code: "auditor"}); !errors.Is(err, blade.ErrRejected) {
		t.Fatalf("viewer create: expected 403 rejection, got %v", err)
	}
	if _, err := c.ListPermissions(ctx, viewer); err != nil {
		t.Fatalf("viewer permission list: %v", err)
	}

	created, err := c.CreateRole(ctx, operator, blade.RoleInput{Name: "Auditor", Code: "auditor", Status: 1})
	if err != nil {
		t.Fatalf("operator create: %v", err)
	}
	if created.ID != "4" || created.Code != "auditor" {
		t.Fatalf("unexpected created role %+v", created)
	}
	updated, err := c.UpdateRole(ctx, operator, created.ID, blade.RoleInput{Name: "Auditor", Code: "audit", Status: 0})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Code != "audit" || updated.Status != 0 {
		t.Fatalf("unexpected updated role %+v", updated)
	}

	if err := c.AssignPermissions(ctx, operator, created.ID, []string{"101", "100", "101"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	perms, err := c.RolePermissions(ctx, operator, created.ID)
	if err != nil {
		t.Fatalf("role permissions: %v", err)
	}
	if !slices.Equal(perms, []string{"100", "101"}) {
		t.Fatalf("expected deduplicated sorted ids, got %v", perms)
	}
	if err := c.AssignPermissions(ctx, operator, created.ID, []string{"999"}); !errors.Is(err, blade.ErrRejected) {
		t.Fatalf("unknown permission: expected rejection, got %v", err)
	}

	if err := c.DeleteRole(ctx, operator, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var apiErr *blade.APIError
	if _, err := c.GetRole(ctx, operator, created.ID); !errors.As(err, &apiErr) || apiErr.Status != 404 {
		t.Fatalf("deleted role: expected 404, got %v", err)
	}
}

func TestRoleInputValidation(t *testing.T) {
	h := newHarness(t, nil)
	c := h.client(t)
	admin := h.token(t, c, "admin", "admin123")
	var apiErr *blade.APIError
	if _, err := c.CreateRole(context.Background(), admin, blade.RoleInput{Name: " "}); !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Fatalf("expected 400 for blank role, got %v", err)
	}
}
