package domain

import (
	"testing"

	"strategypilot/backend/internal/platform/roles"
)

func TestResolvePrimary(t *testing.T) {
	member := &Membership{ID: "m1", Role: roles.RoleMember}
	teamAdmin := &Membership{ID: "m2", Role: roles.RoleTeamAdmin}
	orgAdmin := &Membership{ID: "m3", Role: roles.RoleOrgAdmin}

	cases := []struct {
		name string
		in   []*Membership
		want *Membership
	}{
		{"empty", nil, nil},
		{"single", []*Membership{member}, member},
		{"prefers org admin", []*Membership{member, orgAdmin, teamAdmin}, orgAdmin},
		{"org admin last still wins", []*Membership{member, teamAdmin, orgAdmin}, orgAdmin},
		{"no org admin falls back to first", []*Membership{teamAdmin, member}, teamAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolvePrimary(tc.in); got != tc.want {
				t.Errorf("ResolvePrimary = %+v, want %+v", got, tc.want)
			}
		})
	}
}
