package roles

import "testing"

func TestHasRoleMatchesRankTable(t *testing.T) {
	ranked := []Role{RoleMember, RoleTeamAdmin, RoleOrgAdmin, RoleSupport}
	for i, actual := range ranked {
		for j, required := range ranked {
			got := HasRole(actual, required)
			want := i >= j
			if got != want {
				t.Errorf("HasRole(%s, %s) = %v, want %v", actual, required, got, want)
			}
		}
	}
}

func TestHasRoleUnknownRoles(t *testing.T) {
	cases := []struct {
		name             string
		actual, required Role
	}{
		{"unknown actual", Role("superuser"), RoleMember},
		{"empty actual", Role(""), RoleMember},
		{"unknown required", RoleSupport, Role("root")},
		{"both unknown", Role(""), Role("")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if HasRole(tc.actual, tc.required) {
				t.Errorf("HasRole(%q, %q) = true, want false", tc.actual, tc.required)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		role                            Role
		manageUsers, manageOrg, imperso bool
	}{
		{RoleSupport, true, true, true},
		{RoleOrgAdmin, true, true, false},
		{RoleTeamAdmin, true, false, false},
		{RoleMember, false, false, false},
		{Role("unknown"), false, false, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			if got := CanManageUsers(tc.role); got != tc.manageUsers {
				t.Errorf("CanManageUsers = %v, want %v", got, tc.manageUsers)
			}
			if got := CanManageOrganization(tc.role); got != tc.manageOrg {
				t.Errorf("CanManageOrganization = %v, want %v", got, tc.manageOrg)
			}
			if got := CanImpersonate(tc.role); got != tc.imperso {
				t.Errorf("CanImpersonate = %v, want %v", got, tc.imperso)
			}
		})
	}
}

// The declarative permission table must never contradict the enforcement
// predicates: a role lists a capability permission iff the matching predicate
// grants it.
func TestPermissionsConsistentWithPredicates(t *testing.T) {
	all := []Role{RoleSupport, RoleOrgAdmin, RoleTeamAdmin, RoleMember}
	has := func(r Role, p string) bool {
		for _, v := range Permissions(r) {
			if v == p {
				return true
			}
		}
		return false
	}
	for _, r := range all {
		if got, want := has(r, "impersonate_users"), CanImpersonate(r); got != want {
			t.Errorf("%s: impersonate_users listed=%v, CanImpersonate=%v", r, got, want)
		}
		if got, want := has(r, "manage_organization"), CanManageOrganization(r) && r != RoleSupport; got != want {
			// Support acts through impersonation, not direct org management.
			t.Errorf("%s: manage_organization listed=%v, predicate=%v", r, got, want)
		}
		canInvite := has(r, "invite_users") || has(r, "invite_team_members")
		if got, want := canInvite, CanManageUsers(r) && r != RoleSupport; got != want {
			t.Errorf("%s: invite permission listed=%v, CanManageUsers=%v", r, got, want)
		}
	}
}

func TestPermissionsUnknownRoleEmpty(t *testing.T) {
	if got := Permissions(Role("nope")); len(got) != 0 {
		t.Errorf("Permissions(unknown) = %v, want empty", got)
	}
}

func TestPermissionsReturnsCopy(t *testing.T) {
	a := Permissions(RoleMember)
	a[0] = "tampered"
	if b := Permissions(RoleMember); b[0] == "tampered" {
		t.Error("Permissions returned shared backing slice")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(RoleOrgAdmin); got != "Organization Administrator" {
		t.Errorf("DisplayName(OrgAdmin) = %q", got)
	}
	if got := DisplayName(Role("custom")); got != "custom" {
		t.Errorf("DisplayName(custom) = %q, want raw value", got)
	}
}
