package mock

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/MrEthical07/goBlade/blade"
	"github.com/go-chi/chi/v5"
)

var (
	errRoleNotFound      = errors.New("role not found")
	errUnknownPermission = errors.New("unknown permission")
)

// roleStore holds the role administration fixtures in memory.
type roleStore struct {
	mu          sync.RWMutex
	roles       []blade.Role
	permissions []blade.Permission
	assigned    map[string][]string
	nextID      int
}

func newRoleStore() *roleStore {
	roles := defaultRoles()
	return &roleStore{
		roles:       roles,
		permissions: defaultPermissions(),
		assigned:    defaultRolePermissions(),
		nextID:      len(roles) + 1,
	}
}

func (rs *roleStore) list() []blade.Role {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return slices.Clone(rs.roles)
}

func (rs *roleStore) indexOf(id string) int {
	return slices.IndexFunc(rs.roles, func(r blade.Role) bool { return r.ID == id })
}

func (rs *roleStore) get(id string) (blade.Role, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	i := rs.indexOf(id)
	if i < 0 {
		return blade.Role{}, errRoleNotFound
	}
	return rs.roles[i], nil
}

func (rs *roleStore) create(in blade.RoleInput) blade.Role {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	role := roleFrom(strconv.Itoa(rs.nextID), in)
	rs.nextID++
	rs.roles = append(rs.roles, role)
	return role
}

func (rs *roleStore) update(id string, in blade.RoleInput) (blade.Role, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	i := rs.indexOf(id)
	if i < 0 {
		return blade.Role{}, errRoleNotFound
	}
	rs.roles[i] = roleFrom(id, in)
	return rs.roles[i], nil
}

func (rs *roleStore) remove(id string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	i := rs.indexOf(id)
	if i < 0 {
		return errRoleNotFound
	}
	rs.roles = slices.Delete(rs.roles, i, i+1)
	delete(rs.assigned, id)
	return nil
}

func (rs *roleStore) rolePermissions(id string) ([]string, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.indexOf(id) < 0 {
		return nil, errRoleNotFound
	}
	out := slices.Clone(rs.assigned[id])
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (rs *roleStore) assign(id string, permissionIDs []string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.indexOf(id) < 0 {
		return errRoleNotFound
	}
	for _, pid := range permissionIDs {
		known := slices.ContainsFunc(rs.permissions, func(p blade.Permission) bool { return p.ID == pid })
		if !known {
			return errUnknownPermission
		}
	}
	ids := slices.Clone(permissionIDs)
	slices.Sort(ids)
	rs.assigned[id] = slices.Compact(ids)
	return nil
}

func (rs *roleStore) permissionList() []blade.Permission {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return slices.Clone(rs.permissions)
}

func roleFrom(id string, in blade.RoleInput) blade.Role {
	return blade.Role{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Code:        strings.TrimSpace(in.Code),
		Description: in.Description,
		Status:      in.Status,
		Sort:        in.Sort,
	}
}

func decodeRoleInput(w http.ResponseWriter, r *http.Request) (blade.RoleInput, bool) {
	var in blade.RoleInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return in, false
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Code) == "" {
		respondError(w, http.StatusBadRequest, "name and code are required")
		return in, false
	}
	return in, true
}

func writeRoleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errRoleNotFound):
		respondError(w, http.StatusNotFound, "Role not found")
	case errors.Is(err, errUnknownPermission):
		respondError(w, http.StatusBadRequest, "Unknown permission id")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleRoleList(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, s.roles.list())
}

func (s *Server) handleRoleGet(w http.ResponseWriter, r *http.Request) {
	role, err := s.roles.get(chi.URLParam(r, "id"))
	if err != nil {
		writeRoleError(w, err)
		return
	}
	respondOK(w, role)
}

func (s *Server) handleRoleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeRoleInput(w, r)
	if !ok {
		return
	}
	respondOK(w, s.roles.create(in))
}

func (s *Server) handleRoleUpdate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeRoleInput(w, r)
	if !ok {
		return
	}
	role, err := s.roles.update(chi.URLParam(r, "id"), in)
	if err != nil {
		writeRoleError(w, err)
		return
	}
	respondOK(w, role)
}

func (s *Server) handleRoleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.roles.remove(chi.URLParam(r, "id")); err != nil {
		writeRoleError(w, err)
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleRolePermissions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.roles.rolePermissions(chi.URLParam(r, "id"))
	if err != nil {
		writeRoleError(w, err)
		return
	}
	respondOK(w, ids)
}

func (s *Server) handleAssignPermissions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PermissionIDs []string `json:"permissionIds"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.roles.assign(chi.URLParam(r, "id"), body.PermissionIDs); err != nil {
		writeRoleError(w, err)
		return
	}
	respondOK(w, nil)
}

func (s *Server) handlePermissionList(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, s.roles.permissionList())
}
