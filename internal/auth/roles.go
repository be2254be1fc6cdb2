package auth

import "strings"

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Resolver decides a user's effective role. The role column on the user
// record wins; users without one fall back to the configured allow-list,
// so the first admins can be granted by config before any role has been
// written to the database.
type Resolver struct {
	adminIDs    map[string]struct{}
	adminEmails map[string]struct{}
}

func NewResolver(adminIDs, adminEmails []string) *Resolver {
	r := &Resolver{
		adminIDs:    make(map[string]struct{}, len(adminIDs)),
		adminEmails: make(map[string]struct{}, len(adminEmails)),
	}
	for _, id := range adminIDs {
		r.adminIDs[strings.TrimSpace(id)] = struct{}{}
	}
	for _, e := range adminEmails {
		r.adminEmails[strings.TrimSpace(strings.ToLower(e))] = struct{}{}
	}
	return r
}

func (r *Resolver) Resolve(u *User) string {
	if u == nil {
		return RoleViewer
	}
	if u.Role != nil && *u.Role != "" {
		return *u.Role
	}
	if _, ok := r.adminIDs[u.ID]; ok {
		return RoleAdmin
	}
	if _, ok := r.adminEmails[strings.ToLower(u.Email)]; ok {
		return RoleAdmin
	}
	return RoleViewer
}
