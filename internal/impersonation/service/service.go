package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"strategypilot/backend/internal/impersonation/domain"
	membershipdomain "strategypilot/backend/internal/membership/domain"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/security"
	userdomain "strategypilot/backend/internal/user/domain"
)

// Sentinel errors for the impersonation service.
var (
	ErrNotSupport     = errors.New("only support may impersonate")
	ErrTargetNotFound = errors.New("impersonation target not found")
	ErrGrantNotFound  = errors.New("impersonation grant not found or expired")
)

// GrantRepo is the minimal grant repository needed by the service.
type GrantRepo interface {
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Grant, error)
	Create(ctx context.Context, g *domain.Grant) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteBySupportUser(ctx context.Context, supportUserID string) error
}

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// MembershipRepo is the minimal membership repository needed by the service.
type MembershipRepo interface {
	ListByUser(ctx context.Context, userID string) ([]*membershipdomain.Membership, error)
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
}

// Service mints, validates, and revokes impersonation grants. The grant is
// always persisted before any caller-visible state changes, so a persistence
// failure leaves the support user's own session untouched.
type Service struct {
	grants      GrantRepo
	users       UserRepo
	memberships MembershipRepo
}

// NewService returns an impersonation Service.
func NewService(grants GrantRepo, users UserRepo, memberships MembershipRepo) *Service {
	return &Service{grants: grants, users: users, memberships: memberships}
}

// StartResult describes a freshly minted grant plus the target's identity,
// enough for the caller to assume the target without refetching.
type StartResult struct {
	Grant      *domain.Grant
	TargetUser *userdomain.User
	TargetRole roles.Role
	TargetOrg  string
}

// Start authorizes actor to impersonate targetUserID and persists a grant.
// The actor's primary membership role must be exactly Support; any rank
// short of that, including OrgAdmin, is refused with no state change.
func (s *Service) Start(ctx context.Context, actorUserID, targetUserID string) (*StartResult, error) {
	actorMemberships, err := s.memberships.ListByUser(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	primary := membershipdomain.ResolvePrimary(actorMemberships)
	if primary == nil || !roles.CanImpersonate(primary.Role) {
		return nil, ErrNotSupport
	}

	target, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrTargetNotFound
	}
	targetMemberships, err := s.memberships.ListByUser(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	targetPrimary := membershipdomain.ResolvePrimary(targetMemberships)
	var targetOrg string
	var targetRole roles.Role
	if targetPrimary != nil {
		targetOrg = targetPrimary.OrgID
		targetRole = targetPrimary.Role
	}

	// An actor holds at most one grant: starting again supersedes any
	// earlier grant, so a re-issued token cannot coexist with a stale one.
	if err := s.grants.DeleteBySupportUser(ctx, actorUserID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	grant := &domain.Grant{
		ID:            uuid.New().String(),
		SupportUserID: actorUserID,
		TargetUserID:  targetUserID,
		OrgID:         targetOrg,
		Token:         security.NewOpaqueToken(),
		ExpiresAt:     now.Add(domain.TTL),
		CreatedAt:     now,
	}
	if err := s.grants.Create(ctx, grant); err != nil {
		return nil, err
	}
	return &StartResult{Grant: grant, TargetUser: target, TargetRole: targetRole, TargetOrg: targetOrg}, nil
}

// Validate returns the grant for token when it exists and has not expired.
// Expiry is enforced here, on read, rather than by a background sweeper.
func (s *Service) Validate(ctx context.Context, token string) (*domain.Grant, error) {
	grant, err := s.grants.GetActiveByToken(ctx, token, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, ErrGrantNotFound
	}
	return grant, nil
}

// Stop revokes the grant identified by token. Revoking a grant that is
// already gone (expired, or stopped twice) is a no-op.
func (s *Service) Stop(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.grants.DeleteByToken(ctx, token)
}
