package reconcile

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/youcash/permission-hub/pkg/ranger"
)

// RoleReconciler converges role membership on the policy authority.
// Roles are per-service objects; a membership change touches exactly one
// service.
type RoleReconciler struct {
	client ranger.Client
	logger hclog.Logger
}

func NewRoleReconciler(client ranger.Client, logger hclog.Logger) *RoleReconciler {
	return &RoleReconciler{client: client, logger: logger.Named("roles")}
}

// EnsureMembership makes every named user, group, and nested role a
// member of the role, creating the role when it does not exist yet.
// Existing members are left alone; the update is skipped entirely when
// no member is missing. Returns whether a remote write happened.
func (r *RoleReconciler) EnsureMembership(ctx context.Context, service, roleName string, members PrincipalSet) (bool, error) {
	role, err := r.client.GetRole(ctx, service, roleName)
	if err != nil {
		return false, err
	}

	if role == nil {
		created := &ranger.Role{
			Name:   roleName,
			Users:  toMembers(members.Users),
			Groups: toMembers(members.Groups),
			Roles:  toMembers(members.Roles),
		}
		if _, err := r.client.CreateRole(ctx, service, created); err != nil {
			return false, err
		}
		r.logger.Info("created role", "service", service, "role", roleName,
			"users", len(members.Users), "groups", len(members.Groups), "roles", len(members.Roles))
		return true, nil
	}

	added := false
	role.Users, added = addMissing(role.Users, members.Users, added)
	role.Groups, added = addMissing(role.Groups, members.Groups, added)
	role.Roles, added = addMissing(role.Roles, members.Roles, added)
	if !added {
		r.logger.Debug("role membership already covered", "service", service, "role", roleName)
		return false, nil
	}
	if err := r.client.UpdateRole(ctx, role.ID, role); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveMembership drops the named users, groups, and nested roles from
// the role. A missing role or a member that was never present is a
// no-op, not an error.
func (r *RoleReconciler) RemoveMembership(ctx context.Context, service, roleName string, members PrincipalSet) (bool, error) {
	role, err := r.client.GetRole(ctx, service, roleName)
	if err != nil {
		return false, err
	}
	if role == nil {
		r.logger.Warn("role not found, nothing to remove", "service", service, "role", roleName)
		return false, nil
	}

	removed := false
	role.Users, removed = dropNamed(role.Users, members.Users, removed)
	role.Groups, removed = dropNamed(role.Groups, members.Groups, removed)
	role.Roles, removed = dropNamed(role.Roles, members.Roles, removed)
	if !removed {
		return false, nil
	}
	if err := r.client.UpdateRole(ctx, role.ID, role); err != nil {
		return false, err
	}
	return true, nil
}

func toMembers(names []string) []ranger.RoleMember {
	members := make([]ranger.RoleMember, 0, len(names))
	for _, name := range names {
		members = append(members, ranger.RoleMember{Name: name})
	}
	return members
}

// addMissing appends the names not already present, carrying the changed
// flag across the three member slots.
func addMissing(members []ranger.RoleMember, names []string, changed bool) ([]ranger.RoleMember, bool) {
	for _, name := range diff(names, ranger.MemberNames(members)) {
		members = append(members, ranger.RoleMember{Name: name})
		changed = true
	}
	return members, changed
}

// dropNamed removes the named members, carrying the changed flag across
// the three member slots.
func dropNamed(members []ranger.RoleMember, names []string, changed bool) ([]ranger.RoleMember, bool) {
	if len(names) == 0 {
		return members, changed
	}
	kept := members[:0]
	for _, member := range members {
		if containsString(names, member.Name) {
			changed = true
			continue
		}
		kept = append(kept, member)
	}
	return kept, changed
}

// RemovePrincipalFromAllRoles strips a user from every role that lists
// them. Used when a directory account is retired.
func (r *RoleReconciler) RemovePrincipalFromAllRoles(ctx context.Context, service, user string) error {
	roles, err := r.client.FindRolesForUser(ctx, user)
	if err != nil {
		return err
	}

	var merr *multierror.Error
	for _, role := range roles {
		if _, err := r.RemoveMembership(ctx, service, role.Name, PrincipalSet{Users: []string{user}}); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func containsString(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}
