// Package authstate owns the authenticated-session state for one client
// session: the signed-in user, the resolved organization and primary
// membership, the user's teams, and any active impersonation overlay. All
// mutation goes through the Orchestrator; consumers read immutable snapshots
// and may subscribe to transitions.
package authstate

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	identityservice "strategypilot/backend/internal/identity/service"
	impersonationservice "strategypilot/backend/internal/impersonation/service"
	membershipdomain "strategypilot/backend/internal/membership/domain"
	orgdomain "strategypilot/backend/internal/organization/domain"
	teamdomain "strategypilot/backend/internal/team/domain"
	userdomain "strategypilot/backend/internal/user/domain"
)

// State is the orchestrator's authentication state.
type State int

const (
	StateUnauthenticated State = iota
	StateLoadingProfile
	StateAuthenticated
	// StateAuthenticatedNoProfile means the credential exists but no
	// profile row backs it yet. Benign: sign-up paths create the
	// credential before the profile.
	StateAuthenticatedNoProfile
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoadingProfile:
		return "loading-profile"
	case StateAuthenticated:
		return "authenticated"
	case StateAuthenticatedNoProfile:
		return "authenticated-no-profile"
	}
	return "unknown"
}

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// Overlay is the active impersonation context. While set, the orchestrator's
// user/org/membership/teams describe the target; the overlay names both
// parties so the client can render a persistent banner.
type Overlay struct {
	TargetUser  *userdomain.User
	SupportUser *userdomain.User
	Token       string
	ExpiresAt   time.Time
}

// Snapshot is a point-in-time copy of the orchestrator state. Mutating a
// snapshot never affects the orchestrator.
type Snapshot struct {
	State      State
	Loading    bool
	User       *userdomain.User
	Org        *orgdomain.Org
	Membership *membershipdomain.Membership
	Teams      []*teamdomain.Team
	Overlay    *Overlay

	AccessToken  string
	RefreshToken string
}

// Impersonating reports whether an impersonation overlay is active.
func (s Snapshot) Impersonating() bool {
	return s.Overlay != nil
}

// AuthAPI is the credential-side surface the orchestrator drives.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password, name, orgName, ip string) (*identityservice.AuthResult, error)
	SignIn(ctx context.Context, email, password, ip string) (*identityservice.AuthResult, error)
	SignOut(ctx context.Context, refreshToken, sessionID string) error
}

// ImpersonationAPI mints and revokes impersonation grants.
type ImpersonationAPI interface {
	Start(ctx context.Context, actorUserID, targetUserID string) (*impersonationservice.StartResult, error)
	Stop(ctx context.Context, token string) error
}

// UserReader loads user profiles.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// OrgReader loads organizations.
type OrgReader interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// MembershipReader lists a user's memberships.
type MembershipReader interface {
	ListByUser(ctx context.Context, userID string) ([]*membershipdomain.Membership, error)
}

// TeamReader lists a user's teams.
type TeamReader interface {
	ListByUser(ctx context.Context, userID string) ([]*teamdomain.Team, error)
}

// Orchestrator is the injectable session context. One instance per client
// session; the mutex serializes every operation, so compound flows like
// impersonation cannot interleave.
type Orchestrator struct {
	auth        AuthAPI
	imp         ImpersonationAPI
	users       UserReader
	orgs        OrgReader
	memberships MembershipReader
	teams       TeamReader

	mu         sync.Mutex
	state      State
	loading    bool
	user       *userdomain.User
	org        *orgdomain.Org
	membership *membershipdomain.Membership
	userTeams  []*teamdomain.Team
	overlay    *Overlay

	accessToken  string
	refreshToken string
	profileErr   error

	subs    map[int]func(Snapshot)
	nextSub int
}

// New returns an Orchestrator in the Unauthenticated state.
func New(auth AuthAPI, imp ImpersonationAPI, users UserReader, orgs OrgReader, memberships MembershipReader, teams TeamReader) *Orchestrator {
	return &Orchestrator{
		auth:        auth,
		imp:         imp,
		users:       users,
		orgs:        orgs,
		memberships: memberships,
		teams:       teams,
		state:       StateUnauthenticated,
		subs:        map[int]func(Snapshot){},
	}
}

// Subscribe registers fn to be called with a snapshot after every state
// transition. Callbacks run synchronously, in transition order, while the
// orchestrator lock is held: fn must not call back into the Orchestrator.
// The returned function unsubscribes.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:        o.state,
		Loading:      o.loading,
		AccessToken:  o.accessToken,
		RefreshToken: o.refreshToken,
	}
	if o.user != nil {
		u := *o.user
		snap.User = &u
	}
	if o.org != nil {
		org := *o.org
		snap.Org = &org
	}
	if o.membership != nil {
		m := *o.membership
		snap.Membership = &m
	}
	if len(o.userTeams) > 0 {
		snap.Teams = make([]*teamdomain.Team, len(o.userTeams))
		for i, t := range o.userTeams {
			tc := *t
			snap.Teams[i] = &tc
		}
	}
	if o.overlay != nil {
		ov := *o.overlay
		if ov.TargetUser != nil {
			tu := *ov.TargetUser
			ov.TargetUser = &tu
		}
		if ov.SupportUser != nil {
			su := *ov.SupportUser
			ov.SupportUser = &su
		}
		snap.Overlay = &ov
	}
	return snap
}

func (o *Orchestrator) notifyLocked() {
	snap := o.snapshotLocked()
	for _, fn := range o.subs {
		fn(snap)
	}
}

// SignUp registers the account and, when provisioning succeeded, loads its
// profile. A sign-up whose profile write failed still authenticates, landing
// in AuthenticatedNoProfile; the provisioning failure is reported on the
// snapshot's behalf via ProfileErr.
func (o *Orchestrator) SignUp(ctx context.Context, email, password, name, orgName, ip string) (*identityservice.AuthResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	res, err := o.auth.SignUp(ctx, email, password, name, orgName, ip)
	if err != nil {
		return nil, err
	}
	o.accessToken = res.AccessToken
	o.refreshToken = res.RefreshToken
	o.profileErr = res.ProfileErr
	if res.ProfileErr != nil {
		log.Printf("authstate: sign-up profile provisioning failed for user %s: %v", res.UserID, res.ProfileErr)
	}
	o.fetchLocked(ctx, res.UserID)
	return res, nil
}

// SignIn authenticates and loads the profile.
func (o *Orchestrator) SignIn(ctx context.Context, email, password, ip string) (*identityservice.AuthResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	res, err := o.auth.SignIn(ctx, email, password, ip)
	if err != nil {
		return nil, err
	}
	o.accessToken = res.AccessToken
	o.refreshToken = res.RefreshToken
	o.profileErr = nil
	o.fetchLocked(ctx, res.UserID)
	return res, nil
}

// SignOut invalidates the session and resets every piece of derived state in
// the same transition: no stale org, membership, teams, or overlay survives.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var err error
	if o.refreshToken != "" {
		err = o.auth.SignOut(ctx, o.refreshToken, "")
	}
	o.state = StateUnauthenticated
	o.loading = false
	o.user = nil
	o.org = nil
	o.membership = nil
	o.userTeams = nil
	o.overlay = nil
	o.accessToken = ""
	o.refreshToken = ""
	o.profileErr = nil
	o.notifyLocked()
	return err
}

// ProfileResult is the tagged outcome of FetchUserData. Found distinguishes
// "no profile row yet" (benign) from a fetch error; callers branch on the
// tag, never on error-code inspection.
type ProfileResult struct {
	Found      bool
	User       *userdomain.User
	Org        *orgdomain.Org
	Membership *membershipdomain.Membership
	Teams      []*teamdomain.Team
}

// FetchUserData (re)loads the user, primary membership, organization, and
// teams for userID and applies them to the orchestrator. Idempotent; used on
// sign-in and again when an impersonation overlay is lifted.
func (o *Orchestrator) FetchUserData(ctx context.Context, userID string) (*ProfileResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fetchLocked(ctx, userID)
}

func (o *Orchestrator) fetchLocked(ctx context.Context, userID string) (*ProfileResult, error) {
	o.state = StateLoadingProfile
	o.loading = true
	o.notifyLocked()

	res, err := o.loadProfile(ctx, userID)
	o.loading = false
	if err != nil {
		// Backend failure: loading is finished, no organization is
		// shown, and the session itself stays authenticated.
		log.Printf("authstate: profile fetch failed for user %s: %v", userID, err)
		o.state = StateAuthenticated
		o.org = nil
		o.membership = nil
		o.userTeams = nil
		o.notifyLocked()
		return nil, err
	}
	if !res.Found {
		o.state = StateAuthenticatedNoProfile
		o.user = nil
		o.org = nil
		o.membership = nil
		o.userTeams = nil
		o.notifyLocked()
		return res, nil
	}
	o.state = StateAuthenticated
	o.user = res.User
	o.org = res.Org
	o.membership = res.Membership
	o.userTeams = res.Teams
	o.notifyLocked()
	return res, nil
}

// loadProfile reads the profile graph without touching orchestrator state.
func (o *Orchestrator) loadProfile(ctx context.Context, userID string) (*ProfileResult, error) {
	user, err := o.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &ProfileResult{Found: false}, nil
	}
	memberships, err := o.memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := &ProfileResult{Found: true, User: user}
	if primary := membershipdomain.ResolvePrimary(memberships); primary != nil {
		res.Membership = primary
		org, err := o.orgs.GetByID(ctx, primary.OrgID)
		if err != nil {
			return nil, err
		}
		res.Org = org
	}
	teams, err := o.teams.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res.Teams = teams
	return res, nil
}

// ImpersonateUser starts impersonating targetUserID. The grant is persisted
// first; if that fails, or the target's profile cannot be loaded, the
// orchestrator keeps its prior state and the error propagates. On success
// the visible context becomes the target's, with the overlay naming both
// parties.
func (o *Orchestrator) ImpersonateUser(ctx context.Context, targetUserID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.user == nil {
		return ErrNotAuthenticated
	}
	if o.overlay != nil {
		return errors.New("already impersonating")
	}
	supportUser := o.user

	start, err := o.imp.Start(ctx, supportUser.ID, targetUserID)
	if err != nil {
		return err
	}
	profile, err := o.loadProfile(ctx, targetUserID)
	if err != nil || !profile.Found {
		// Roll the grant back so no orphaned grant outlives the
		// failed swap.
		_ = o.imp.Stop(ctx, start.Grant.Token)
		if err == nil {
			err = impersonationservice.ErrTargetNotFound
		}
		return err
	}

	o.user = profile.User
	o.org = profile.Org
	o.membership = profile.Membership
	o.userTeams = profile.Teams
	o.overlay = &Overlay{
		TargetUser:  profile.User,
		SupportUser: supportUser,
		Token:       start.Grant.Token,
		ExpiresAt:   start.Grant.ExpiresAt,
	}
	o.notifyLocked()
	return nil
}

// StopImpersonation revokes the active grant and restores the support
// user's own context. The overlay is cleared only after the support profile
// has been reloaded, so no transition ever shows an empty identity. Without
// an active overlay this is a no-op.
func (o *Orchestrator) StopImpersonation(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.overlay == nil {
		return nil
	}
	supportID := o.overlay.SupportUser.ID
	if err := o.imp.Stop(ctx, o.overlay.Token); err != nil {
		return err
	}
	profile, err := o.loadProfile(ctx, supportID)
	if err != nil {
		return err
	}
	if profile.Found {
		o.user = profile.User
		o.org = profile.Org
		o.membership = profile.Membership
		o.userTeams = profile.Teams
	} else {
		o.user = o.overlay.SupportUser
		o.org = nil
		o.membership = nil
		o.userTeams = nil
	}
	o.overlay = nil
	o.state = StateAuthenticated
	o.notifyLocked()
	return nil
}

// ProfileErr reports the provisioning failure, if any, from the last
// sign-up. Cleared on sign-in and sign-out.
func (o *Orchestrator) ProfileErr() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.profileErr
}
