package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	identitydomain "strategypilot/backend/internal/identity/domain"
	membershipdomain "strategypilot/backend/internal/membership/domain"
	orgdomain "strategypilot/backend/internal/organization/domain"
	orgrepository "strategypilot/backend/internal/organization/repository"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/security"
	sessiondomain "strategypilot/backend/internal/session/domain"
	teamdomain "strategypilot/backend/internal/team/domain"
	userdomain "strategypilot/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidEmail           = errors.New("invalid email format")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
	ErrInvalidResetToken      = errors.New("invalid or expired reset token")
	ErrWeakPassword           = errors.New("password does not meet the policy")
)

// AuthResult holds the outcome of SignUp, SignIn, or Refresh.
//
// ProfileErr is set (with a nil error return) when SignUp created the
// credential but failed to provision the organization membership: the account
// exists and can sign in later, but has no org yet. Callers must surface it
// distinctly, not as a failed registration.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	OrgID        string
	Role         roles.Role
	OrgCreated   bool
	ProfileErr   error
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	StampLastLogin(ctx context.Context, id string, at time.Time) error
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
	Create(ctx context.Context, i *identitydomain.Identity) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Confirm(ctx context.Context, id string, at time.Time) error
}

// OrgRepo is the minimal organization repository needed by the auth service.
// Create must return repository.ErrDomainTaken on a domain collision.
type OrgRepo interface {
	GetByDomain(ctx context.Context, emailDomain string) (*orgdomain.Org, error)
	Create(ctx context.Context, o *orgdomain.Org) error
}

// TeamRepo is the minimal team repository needed by the auth service.
type TeamRepo interface {
	GetByOrgAndName(ctx context.Context, orgID, name string) (*teamdomain.Team, error)
	Create(ctx context.Context, t *teamdomain.Team) error
}

// MembershipRepo is the minimal membership repository needed by the auth service.
type MembershipRepo interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]*membershipdomain.Membership, error)
	Create(ctx context.Context, m *membershipdomain.Membership) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// ResetTokenRepo is the minimal password-reset repository needed by the auth service.
type ResetTokenRepo interface {
	Create(ctx context.Context, r *identitydomain.PasswordReset) error
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*identitydomain.PasswordReset, error)
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
}

// AuthService implements sign-up with organization provisioning, sign-in,
// refresh-token rotation, sign-out, and password reset.
type AuthService struct {
	userRepo       UserRepo
	identityRepo   IdentityRepo
	orgRepo        OrgRepo
	teamRepo       TeamRepo
	membershipRepo MembershipRepo
	sessionRepo    SessionRepo
	resetRepo      ResetTokenRepo
	hasher         *security.Hasher
	tokens         *security.TokenProvider
	policy         security.PasswordPolicy
	refreshTTL     time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	userRepo UserRepo,
	identityRepo IdentityRepo,
	orgRepo OrgRepo,
	teamRepo TeamRepo,
	membershipRepo MembershipRepo,
	sessionRepo SessionRepo,
	resetRepo ResetTokenRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	policy security.PasswordPolicy,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		identityRepo:   identityRepo,
		orgRepo:        orgRepo,
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		sessionRepo:    sessionRepo,
		resetRepo:      resetRepo,
		hasher:         hasher,
		tokens:         tokens,
		policy:         policy,
		refreshTTL:     refreshTTL,
	}
}

// SignUp registers a new account and places it in the organization owning the
// email's domain, creating the organization (and its Unassigned team) when it
// does not exist yet. The first registrant for a domain becomes OrgAdmin;
// later registrants join as Member.
//
// The credential (user + identity) is created first. If organization
// provisioning then fails, the credential is kept and the failure is returned
// on AuthResult.ProfileErr with a nil error: the account can sign in and be
// attached to an org later.
func (s *AuthService) SignUp(ctx context.Context, email, password, name, orgName, ip string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if v := s.policy.Validate(password); !v.Valid {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(v.Errors, "; "))
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	now := time.Now().UTC()
	user := &userdomain.User{
		ID:                      uuid.New().String(),
		Email:                   email,
		Name:                    strings.TrimSpace(name),
		Status:                  userdomain.UserStatusActive,
		PasswordPolicyCompliant: true,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	identity := &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}

	res := &AuthResult{UserID: user.ID}
	org, created, err := s.provisionOrg(ctx, email, orgName)
	if err != nil {
		res.ProfileErr = err
		return res, nil
	}
	role := roles.RoleMember
	if created {
		role = roles.RoleOrgAdmin
	}
	if err := s.placeInOrg(ctx, user.ID, org.ID, role); err != nil {
		res.ProfileErr = err
		return res, nil
	}
	res.OrgID = org.ID
	res.Role = role
	res.OrgCreated = created

	if err := s.startSession(ctx, res, user.ID, org.ID, string(role), ip); err != nil {
		return nil, err
	}
	return res, nil
}

// provisionOrg returns the organization for the email's domain, creating it
// (with its Unassigned team) when absent. The new org takes orgName, falling
// back to the domain itself. A unique-constraint collision with a concurrent
// registrant converts the creator into a joiner.
func (s *AuthService) provisionOrg(ctx context.Context, email, orgName string) (*orgdomain.Org, bool, error) {
	emailDomain := orgdomain.DomainFromEmail(email)
	if emailDomain == "" {
		return nil, false, ErrInvalidEmail
	}
	org, err := s.orgRepo.GetByDomain(ctx, emailDomain)
	if err != nil {
		return nil, false, err
	}
	if org != nil {
		return org, false, nil
	}
	orgName = strings.TrimSpace(orgName)
	if orgName == "" {
		orgName = emailDomain
	}
	org = &orgdomain.Org{
		ID:        uuid.New().String(),
		Name:      orgName,
		Domain:    emailDomain,
		Status:    orgdomain.OrgStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	err = s.orgRepo.Create(ctx, org)
	if errors.Is(err, orgrepository.ErrDomainTaken) {
		org, err = s.orgRepo.GetByDomain(ctx, emailDomain)
		if err != nil {
			return nil, false, err
		}
		if org == nil {
			return nil, false, orgrepository.ErrDomainTaken
		}
		return org, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	team := &teamdomain.Team{
		ID:        uuid.New().String(),
		OrgID:     org.ID,
		Name:      teamdomain.UnassignedName,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, false, err
	}
	return org, true, nil
}

// placeInOrg creates the membership, attached to the org's Unassigned team
// when it exists.
func (s *AuthService) placeInOrg(ctx context.Context, userID, orgID string, role roles.Role) error {
	var teamID *string
	team, err := s.teamRepo.GetByOrgAndName(ctx, orgID, teamdomain.UnassignedName)
	if err != nil {
		return err
	}
	if team != nil {
		teamID = &team.ID
	}
	return s.membershipRepo.Create(ctx, &membershipdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    userID,
		OrgID:     orgID,
		TeamID:    teamID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
}

// SignIn authenticates with email/password, resolves the primary membership,
// creates a session, and returns tokens. The last-login stamp is best-effort
// and never blocks or fails the sign-in.
func (s *AuthService) SignIn(ctx context.Context, email, password, ip string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	ident, err := s.identityRepo.GetByUserAndProvider(ctx, user.ID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	memberships, err := s.membershipRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	var orgID string
	var role roles.Role
	if primary := membershipdomain.ResolvePrimary(memberships); primary != nil {
		orgID = primary.OrgID
		role = primary.Role
	}
	res := &AuthResult{UserID: user.ID, OrgID: orgID, Role: role}
	if err := s.startSession(ctx, res, user.ID, orgID, string(role), ip); err != nil {
		return nil, err
	}
	go func(id string) {
		stampCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.userRepo.StampLastLogin(stampCtx, id, time.Now().UTC()); err != nil {
			log.Printf("auth: last-login stamp failed for user %s: %v", id, err)
		}
	}(user.ID)
	return res, nil
}

// startSession mints refresh + access tokens, persists the session row, and
// fills the token fields of res.
func (s *AuthService) startSession(ctx context.Context, res *AuthResult, userID, orgID, role, ip string) error {
	sessionID := uuid.New().String()
	refreshToken, jti, _, err := s.tokens.IssueRefresh(sessionID, userID, orgID)
	if err != nil {
		return err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(security.AccessIdentity{
		SessionID: sessionID,
		UserID:    userID,
		OrgID:     orgID,
		Role:      role,
	})
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           userID,
		OrgID:            orgID,
		ExpiresAt:        now.Add(s.refreshTTL),
		IPAddress:        ip,
		RefreshJti:       jti,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		CreatedAt:        now,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return err
	}
	res.AccessToken = accessToken
	res.RefreshToken = refreshToken
	res.ExpiresAt = accessExp
	return nil
}

// Refresh validates the refresh token, rotates it, and returns new tokens.
// A refresh token whose jti no longer matches the session is treated as
// stolen: every session of the user is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	sessionID, jti, userID, orgID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Active(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJti != jti {
		_ = s.sessionRepo.RevokeAllByUser(ctx, userID)
		return nil, ErrRefreshTokenReuse
	}
	if sess.RefreshTokenHash != "" && !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	var role roles.Role
	if orgID != "" {
		m, err := s.membershipRepo.GetByUserAndOrg(ctx, userID, orgID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			role = m.Role
		}
	}
	now := time.Now().UTC()
	_ = s.sessionRepo.UpdateLastSeen(ctx, sessionID, now)
	newRefresh, newJti, _, err := s.tokens.IssueRefresh(sessionID, userID, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.UpdateRefreshToken(ctx, sessionID, newJti, security.HashRefreshToken(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(security.AccessIdentity{
		SessionID: sessionID,
		UserID:    userID,
		OrgID:     orgID,
		Role:      string(role),
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		UserID:       userID,
		OrgID:        orgID,
		Role:         role,
	}, nil
}

// SignOut revokes the session identified by the refresh token, falling back
// to sessionID (set by the auth middleware from the bearer token). A missing
// or invalid token is a no-op, matching client-side sign-out semantics.
func (s *AuthService) SignOut(ctx context.Context, refreshToken, sessionID string) error {
	if refreshToken != "" {
		sid, _, _, _, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		return s.sessionRepo.Revoke(ctx, sid)
	}
	if sessionID == "" {
		return nil
	}
	return s.sessionRepo.Revoke(ctx, sessionID)
}

// RequestPasswordReset issues an opaque reset token for the account. The
// token is returned for delivery; whether the email exists is not revealed
// to the caller of the HTTP endpoint, so an unknown email yields ("", nil).
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	now := time.Now().UTC()
	reset := &identitydomain.PasswordReset{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     security.NewOpaqueToken(),
		ExpiresAt: now.Add(identitydomain.PasswordResetTTL),
		CreatedAt: now,
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return "", err
	}
	return reset.Token, nil
}

// ResetPassword consumes a reset token and sets the new password. The token
// is single-use; losing the MarkUsed race means another request already
// consumed it.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if v := s.policy.Validate(newPassword); !v.Valid {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(v.Errors, "; "))
	}
	reset, err := s.resetRepo.GetActiveByToken(ctx, token, time.Now().UTC())
	if err != nil {
		return err
	}
	if reset == nil {
		return ErrInvalidResetToken
	}
	ident, err := s.identityRepo.GetByUserAndProvider(ctx, reset.UserID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return err
	}
	if ident == nil {
		return ErrInvalidResetToken
	}
	won, err := s.resetRepo.MarkUsed(ctx, reset.ID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !won {
		return ErrInvalidResetToken
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.identityRepo.UpdatePasswordHash(ctx, ident.ID, hashed); err != nil {
		return err
	}
	// Password change invalidates every existing session.
	return s.sessionRepo.RevokeAllByUser(ctx, reset.UserID)
}

// ConfirmEmail stamps the local identity's confirmation time. Idempotent.
func (s *AuthService) ConfirmEmail(ctx context.Context, userID string) error {
	ident, err := s.identityRepo.GetByUserAndProvider(ctx, userID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return err
	}
	if ident == nil {
		return ErrInvalidCredentials
	}
	if ident.Confirmed() {
		return nil
	}
	return s.identityRepo.Confirm(ctx, ident.ID, time.Now().UTC())
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return ErrInvalidEmail
	}
	return nil
}
