// Package roles defines the role hierarchy and the permission predicates
// derived from it. All checks are pure functions over the static rank table.
package roles

// Role is a membership role within an organization.
type Role string

const (
	RoleSupport   Role = "Support"
	RoleOrgAdmin  Role = "OrgAdmin"
	RoleTeamAdmin Role = "TeamAdmin"
	RoleMember    Role = "Member"
)

// rank is the total order over roles. Higher rank means more privilege.
// Unknown roles are absent and rank below everything.
var rank = map[Role]int{
	RoleSupport:   4,
	RoleOrgAdmin:  3,
	RoleTeamAdmin: 2,
	RoleMember:    1,
}

// Valid reports whether r is one of the known roles.
func Valid(r Role) bool {
	_, ok := rank[r]
	return ok
}

// HasRole reports whether actual satisfies a minimum-rank check against
// required. An unknown actual role always fails; an unknown required role
// can never be satisfied.
func HasRole(actual, required Role) bool {
	ar, ok := rank[actual]
	if !ok {
		return false
	}
	rr, ok := rank[required]
	if !ok {
		return false
	}
	return ar >= rr
}

// CanManageUsers reports whether r may invite and manage users.
func CanManageUsers(r Role) bool {
	return HasRole(r, RoleTeamAdmin)
}

// CanManageOrganization reports whether r may change organization-level
// settings, teams, and billing.
func CanManageOrganization(r Role) bool {
	return HasRole(r, RoleOrgAdmin)
}

// CanImpersonate reports whether r may start an impersonation session.
// This is an exact match, not a rank check: only Support impersonates.
func CanImpersonate(r Role) bool {
	return r == RoleSupport
}

// DisplayName returns the human-readable name for r, or the raw value for
// unknown roles.
func DisplayName(r Role) string {
	switch r {
	case RoleOrgAdmin:
		return "Organization Administrator"
	case RoleTeamAdmin:
		return "Team Administrator"
	case RoleMember:
		return "Member"
	case RoleSupport:
		return "Support"
	}
	return string(r)
}

// permissions is the declarative capability table per role. It is used for
// capability display only; enforcement goes through HasRole and the
// predicates above.
var permissions = map[Role][]string{
	RoleSupport: {
		"impersonate_users",
		"view_all_organizations",
		"view_audit_logs",
		"manage_support_tickets",
	},
	RoleOrgAdmin: {
		"manage_organization",
		"manage_teams",
		"manage_users",
		"manage_subscription",
		"create_strategic_plans",
		"manage_strategic_plans",
		"view_all_plans",
		"invite_users",
	},
	RoleTeamAdmin: {
		"manage_team_users",
		"create_team_plans",
		"manage_team_plans",
		"view_team_plans",
		"invite_team_members",
	},
	RoleMember: {
		"view_assigned_plans",
		"update_action_items",
		"add_status_updates",
		"view_team_plans",
	},
}

// Permissions returns the permission strings for r. Unknown roles get an
// empty list. The returned slice is a copy.
func Permissions(r Role) []string {
	ps, ok := permissions[r]
	if !ok {
		return nil
	}
	out := make([]string, len(ps))
	copy(out, ps)
	return out
}
