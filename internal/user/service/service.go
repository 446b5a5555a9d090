package service

import (
	"context"
	"errors"
	"strings"

	membershipdomain "strategypilot/backend/internal/membership/domain"
	"strategypilot/backend/internal/platform/roles"
	teamdomain "strategypilot/backend/internal/team/domain"
	userdomain "strategypilot/backend/internal/user/domain"
)

// Sentinel errors for the user-management service.
var (
	ErrNotAllowed       = errors.New("caller may not manage users")
	ErrUserNotFound     = errors.New("user not found in organization")
	ErrInvalidRole      = errors.New("invalid role")
	ErrLastOrgAdmin     = errors.New("organization must keep at least one OrgAdmin")
	ErrSelfDemotion     = errors.New("cannot change your own role")
	ErrTeamNotInOrg     = errors.New("team not found in organization")
	ErrCannotRemoveSelf = errors.New("cannot remove yourself from the organization")
)

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	ListByOrg(ctx context.Context, orgID string) ([]*userdomain.User, error)
	UpdateName(ctx context.Context, id, name string) error
}

// MembershipRepo is the minimal membership repository needed by the service.
type MembershipRepo interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*membershipdomain.Membership, error)
	UpdateRole(ctx context.Context, userID, orgID string, role roles.Role) error
	UpdateTeam(ctx context.Context, userID, orgID string, teamID *string) error
	DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error
}

// TeamRepo is the minimal team repository needed by the service.
type TeamRepo interface {
	GetByID(ctx context.Context, id string) (*teamdomain.Team, error)
}

// SessionRevoker revokes every session of a user.
type SessionRevoker interface {
	RevokeAllByUser(ctx context.Context, userID string) error
}

// Service manages the users of one organization: listing, role changes, team
// assignment, and removal.
type Service struct {
	users       UserRepo
	memberships MembershipRepo
	teams       TeamRepo
	sessions    SessionRevoker
}

// NewService returns a user-management Service.
func NewService(users UserRepo, memberships MembershipRepo, teams TeamRepo, sessions SessionRevoker) *Service {
	return &Service{users: users, memberships: memberships, teams: teams, sessions: sessions}
}

// OrgUser is a user joined with their membership in the org.
type OrgUser struct {
	User       *userdomain.User
	Membership *membershipdomain.Membership
}

// ListOrgUsers returns the org's users with their memberships. Requires
// CanManageUsers.
func (s *Service) ListOrgUsers(ctx context.Context, actorRole roles.Role, orgID string) ([]*OrgUser, error) {
	if !roles.CanManageUsers(actorRole) {
		return nil, ErrNotAllowed
	}
	users, err := s.users.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.memberships.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*membershipdomain.Membership, len(memberships))
	for _, m := range memberships {
		byUser[m.UserID] = m
	}
	out := make([]*OrgUser, 0, len(users))
	for _, u := range users {
		out = append(out, &OrgUser{User: u, Membership: byUser[u.ID]})
	}
	return out, nil
}

// UpdateRole changes a member's role. Requires CanManageOrganization; an
// admin cannot change their own role, and the org's last OrgAdmin cannot be
// demoted.
func (s *Service) UpdateRole(ctx context.Context, actorRole roles.Role, actorUserID, orgID, targetUserID string, role roles.Role) error {
	if !roles.CanManageOrganization(actorRole) {
		return ErrNotAllowed
	}
	if !roles.Valid(role) || role == roles.RoleSupport {
		return ErrInvalidRole
	}
	if targetUserID == actorUserID {
		return ErrSelfDemotion
	}
	target, err := s.memberships.GetByUserAndOrg(ctx, targetUserID, orgID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	if target.Role == roles.RoleOrgAdmin && role != roles.RoleOrgAdmin {
		demotable, err := s.hasAnotherOrgAdmin(ctx, orgID, targetUserID)
		if err != nil {
			return err
		}
		if !demotable {
			return ErrLastOrgAdmin
		}
	}
	return s.memberships.UpdateRole(ctx, targetUserID, orgID, role)
}

func (s *Service) hasAnotherOrgAdmin(ctx context.Context, orgID, excludedUserID string) (bool, error) {
	memberships, err := s.memberships.ListByOrg(ctx, orgID)
	if err != nil {
		return false, err
	}
	for _, m := range memberships {
		if m.Role == roles.RoleOrgAdmin && m.UserID != excludedUserID {
			return true, nil
		}
	}
	return false, nil
}

// AssignTeam moves a member to the given team, or off any team when teamID
// is empty. Requires CanManageUsers; the team must belong to the org.
func (s *Service) AssignTeam(ctx context.Context, actorRole roles.Role, orgID, targetUserID, teamID string) error {
	if !roles.CanManageUsers(actorRole) {
		return ErrNotAllowed
	}
	target, err := s.memberships.GetByUserAndOrg(ctx, targetUserID, orgID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	var tid *string
	if teamID != "" {
		team, err := s.teams.GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		if team == nil || team.OrgID != orgID {
			return ErrTeamNotInOrg
		}
		tid = &team.ID
	}
	return s.memberships.UpdateTeam(ctx, targetUserID, orgID, tid)
}

// RemoveFromOrg deletes a member's membership and revokes their sessions.
// Requires CanManageOrganization; self-removal and removing the last
// OrgAdmin are refused.
func (s *Service) RemoveFromOrg(ctx context.Context, actorRole roles.Role, actorUserID, orgID, targetUserID string) error {
	if !roles.CanManageOrganization(actorRole) {
		return ErrNotAllowed
	}
	if targetUserID == actorUserID {
		return ErrCannotRemoveSelf
	}
	target, err := s.memberships.GetByUserAndOrg(ctx, targetUserID, orgID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	if target.Role == roles.RoleOrgAdmin {
		demotable, err := s.hasAnotherOrgAdmin(ctx, orgID, targetUserID)
		if err != nil {
			return err
		}
		if !demotable {
			return ErrLastOrgAdmin
		}
	}
	if err := s.memberships.DeleteByUserAndOrg(ctx, targetUserID, orgID); err != nil {
		return err
	}
	return s.sessions.RevokeAllByUser(ctx, targetUserID)
}

// UpdateProfile renames the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	return s.users.UpdateName(ctx, userID, name)
}
