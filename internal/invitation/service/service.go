package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	identitydomain "strategypilot/backend/internal/identity/domain"
	"strategypilot/backend/internal/invitation/domain"
	membershipdomain "strategypilot/backend/internal/membership/domain"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/security"
	teamdomain "strategypilot/backend/internal/team/domain"
	userdomain "strategypilot/backend/internal/user/domain"
)

// Sentinel errors for the invitation service.
var (
	ErrNotAllowed         = errors.New("caller may not manage invitations")
	ErrUserAlreadyExists  = errors.New("a user with this email already exists")
	ErrInvitationNotFound = errors.New("invitation not found or already accepted")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrInvitationConsumed = errors.New("invitation was already accepted")
	ErrInvalidRole        = errors.New("invalid role for invitation")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrEmailRequired      = errors.New("email is required")
	ErrTeamNotInOrg       = errors.New("team not found in organization")
)

// InvitationRepo is the minimal invitation repository needed by the service.
type InvitationRepo interface {
	GetPendingByToken(ctx context.Context, token string) (*domain.Invitation, error)
	ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Invitation, error)
	Create(ctx context.Context, i *domain.Invitation) error
	MarkAccepted(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// IdentityRepo is the minimal identity repository needed by the service.
type IdentityRepo interface {
	Create(ctx context.Context, i *identitydomain.Identity) error
}

// MembershipRepo is the minimal membership repository needed by the service.
type MembershipRepo interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
	Create(ctx context.Context, m *membershipdomain.Membership) error
}

// TeamRepo is the minimal team repository needed by the service.
type TeamRepo interface {
	GetByID(ctx context.Context, id string) (*teamdomain.Team, error)
	GetByOrgAndName(ctx context.Context, orgID, name string) (*teamdomain.Team, error)
}

// Service creates, lists, revokes, and accepts invitations. Acceptance is
// single-use: the pending-by-token lookup filters out accepted rows, and the
// accepted_at stamp is conditional, so a token can never be consumed twice.
type Service struct {
	invitations InvitationRepo
	users       UserRepo
	identities  IdentityRepo
	memberships MembershipRepo
	teams       TeamRepo
	hasher      *security.Hasher
	policy      security.PasswordPolicy
}

// NewService returns an invitation Service.
func NewService(
	invitations InvitationRepo,
	users UserRepo,
	identities IdentityRepo,
	memberships MembershipRepo,
	teams TeamRepo,
	hasher *security.Hasher,
	policy security.PasswordPolicy,
) *Service {
	return &Service{
		invitations: invitations,
		users:       users,
		identities:  identities,
		memberships: memberships,
		teams:       teams,
		hasher:      hasher,
		policy:      policy,
	}
}

// Create issues an invitation to email for the actor's organization. The
// actor's role must pass CanManageUsers. An invitation defaults to the
// Unassigned team when teamID is empty; emails of existing users are
// rejected.
func (s *Service) Create(ctx context.Context, actorRole roles.Role, orgID, email string, role roles.Role, teamID, invitedBy string) (*domain.Invitation, error) {
	if !roles.CanManageUsers(actorRole) {
		return nil, ErrNotAllowed
	}
	if !roles.Valid(role) || role == roles.RoleSupport {
		return nil, ErrInvalidRole
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	var tid *string
	if teamID != "" {
		team, err := s.teams.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if team == nil || team.OrgID != orgID {
			return nil, ErrTeamNotInOrg
		}
		tid = &team.ID
	} else {
		team, err := s.teams.GetByOrgAndName(ctx, orgID, teamdomain.UnassignedName)
		if err != nil {
			return nil, err
		}
		if team != nil {
			tid = &team.ID
		}
	}

	now := time.Now().UTC()
	inv := &domain.Invitation{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		TeamID:    tid,
		Email:     email,
		Role:      role,
		InvitedBy: invitedBy,
		Token:     security.NewOpaqueToken(),
		ExpiresAt: now.Add(domain.TTL),
		CreatedAt: now,
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Lookup returns the pending invitation for token, distinguishing expiry
// from absence so the sign-up page can show the right message.
func (s *Service) Lookup(ctx context.Context, token string) (*domain.Invitation, error) {
	inv, err := s.invitations.GetPendingByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}
	if inv.Expired(time.Now().UTC()) {
		return nil, ErrInvitationExpired
	}
	return inv, nil
}

// AcceptResult is the account created by Accept.
type AcceptResult struct {
	UserID string
	OrgID  string
	Role   roles.Role
}

// Accept consumes the invitation: creates the user, local identity, and
// membership in the invitation's org/team/role, then stamps accepted_at.
// Losing the stamp race means another request consumed the token first.
func (s *Service) Accept(ctx context.Context, token, password, name string) (*AcceptResult, error) {
	inv, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if v := s.policy.Validate(password); !v.Valid {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(v.Errors, "; "))
	}
	existing, err := s.users.GetByEmail(ctx, inv.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	now := time.Now().UTC()
	won, err := s.invitations.MarkAccepted(ctx, inv.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrInvitationConsumed
	}

	user := &userdomain.User{
		ID:                      uuid.New().String(),
		Email:                   inv.Email,
		Name:                    strings.TrimSpace(name),
		Status:                  userdomain.UserStatusActive,
		PasswordPolicyCompliant: true,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	confirmed := now // accepting the emailed link proves the address
	if err := s.identities.Create(ctx, &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   inv.Email,
		PasswordHash: hashed,
		ConfirmedAt:  &confirmed,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}
	if err := s.memberships.Create(ctx, &membershipdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		OrgID:     inv.OrgID,
		TeamID:    inv.TeamID,
		Role:      inv.Role,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return &AcceptResult{UserID: user.ID, OrgID: inv.OrgID, Role: inv.Role}, nil
}

// ListPending returns the org's pending invitations for admins.
func (s *Service) ListPending(ctx context.Context, actorRole roles.Role, orgID string) ([]*domain.Invitation, error) {
	if !roles.CanManageUsers(actorRole) {
		return nil, ErrNotAllowed
	}
	return s.invitations.ListPendingByOrg(ctx, orgID)
}

// Revoke deletes a pending invitation. The invitation must belong to orgID.
func (s *Service) Revoke(ctx context.Context, actorRole roles.Role, orgID, invitationID string) error {
	if !roles.CanManageUsers(actorRole) {
		return ErrNotAllowed
	}
	pending, err := s.invitations.ListPendingByOrg(ctx, orgID)
	if err != nil {
		return err
	}
	for _, inv := range pending {
		if inv.ID == invitationID {
			return s.invitations.Delete(ctx, inv.ID)
		}
	}
	return ErrInvitationNotFound
}
