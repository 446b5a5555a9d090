package authstate

import (
	"context"
	"errors"
	"testing"
	"time"

	identityservice "strategypilot/backend/internal/identity/service"
	impersonationdomain "strategypilot/backend/internal/impersonation/domain"
	impersonationservice "strategypilot/backend/internal/impersonation/service"
	membershipdomain "strategypilot/backend/internal/membership/domain"
	orgdomain "strategypilot/backend/internal/organization/domain"
	"strategypilot/backend/internal/platform/roles"
	teamdomain "strategypilot/backend/internal/team/domain"
	userdomain "strategypilot/backend/internal/user/domain"
)

type stubAuth struct {
	signUpRes  *identityservice.AuthResult
	signInRes  *identityservice.AuthResult
	signInErr  error
	signedOut  []string
	signOutErr error
}

func (a *stubAuth) SignUp(_ context.Context, _, _, _, _, _ string) (*identityservice.AuthResult, error) {
	return a.signUpRes, nil
}

func (a *stubAuth) SignIn(_ context.Context, _, _, _ string) (*identityservice.AuthResult, error) {
	if a.signInErr != nil {
		return nil, a.signInErr
	}
	return a.signInRes, nil
}

func (a *stubAuth) SignOut(_ context.Context, refreshToken, _ string) error {
	a.signedOut = append(a.signedOut, refreshToken)
	return a.signOutErr
}

type stubImp struct {
	startRes *impersonationservice.StartResult
	startErr error
	stopped  []string
	stopErr  error
}

func (i *stubImp) Start(_ context.Context, _, _ string) (*impersonationservice.StartResult, error) {
	if i.startErr != nil {
		return nil, i.startErr
	}
	return i.startRes, nil
}

func (i *stubImp) Stop(_ context.Context, token string) error {
	if i.stopErr != nil {
		return i.stopErr
	}
	i.stopped = append(i.stopped, token)
	return nil
}

type memReaders struct {
	users       map[string]*userdomain.User
	orgs        map[string]*orgdomain.Org
	memberships map[string][]*membershipdomain.Membership
	teams       map[string][]*teamdomain.Team
	usersErr    error
}

func (r *memReaders) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	if r.usersErr != nil {
		return nil, r.usersErr
	}
	return r.users[id], nil
}

func (r *memReaders) GetOrgByID(_ context.Context, id string) (*orgdomain.Org, error) {
	return r.orgs[id], nil
}

func (r *memReaders) ListByUser(_ context.Context, userID string) ([]*membershipdomain.Membership, error) {
	return r.memberships[userID], nil
}

func (r *memReaders) ListTeamsByUser(_ context.Context, userID string) ([]*teamdomain.Team, error) {
	return r.teams[userID], nil
}

// Adapters so one fixture struct can satisfy the four reader interfaces
// despite the colliding method names.
type orgReader struct{ *memReaders }

func (r orgReader) GetByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	return r.GetOrgByID(ctx, id)
}

type teamReader struct{ *memReaders }

func (r teamReader) ListByUser(ctx context.Context, userID string) ([]*teamdomain.Team, error) {
	return r.ListTeamsByUser(ctx, userID)
}

type fixture struct {
	orch    *Orchestrator
	auth    *stubAuth
	imp     *stubImp
	readers *memReaders
}

func newFixture() *fixture {
	readers := &memReaders{
		users: map[string]*userdomain.User{
			"u-support": {ID: "u-support", Email: "support@strategypilot.com", Name: "Sam Support"},
			"u-target":  {ID: "u-target", Email: "bob@acme.com", Name: "Bob"},
		},
		orgs: map[string]*orgdomain.Org{
			"org-sp":   {ID: "org-sp", Name: "StrategyPilot", Domain: "strategypilot.com"},
			"org-acme": {ID: "org-acme", Name: "Acme", Domain: "acme.com"},
		},
		memberships: map[string][]*membershipdomain.Membership{
			"u-support": {{ID: "m1", UserID: "u-support", OrgID: "org-sp", Role: roles.RoleSupport}},
			"u-target":  {{ID: "m2", UserID: "u-target", OrgID: "org-acme", Role: roles.RoleMember}},
		},
		teams: map[string][]*teamdomain.Team{
			"u-target": {{ID: "team-u", OrgID: "org-acme", Name: teamdomain.UnassignedName}},
		},
	}
	auth := &stubAuth{
		signInRes: &identityservice.AuthResult{
			UserID: "u-support", OrgID: "org-sp", Role: roles.RoleSupport,
			AccessToken: "access-1", RefreshToken: "refresh-1",
		},
	}
	imp := &stubImp{
		startRes: &impersonationservice.StartResult{
			Grant: &impersonationdomain.Grant{
				ID: "g1", SupportUserID: "u-support", TargetUserID: "u-target",
				OrgID: "org-acme", Token: "grant-token",
				CreatedAt: time.Now().UTC(), ExpiresAt: time.Now().UTC().Add(impersonationdomain.TTL),
			},
		},
	}
	orch := New(auth, imp, readers, orgReader{readers}, readers, teamReader{readers})
	return &fixture{orch: orch, auth: auth, imp: imp, readers: readers}
}

func signIn(t *testing.T, f *fixture) {
	t.Helper()
	if _, err := f.orch.SignIn(context.Background(), "support@strategypilot.com", "pw", ""); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
}

func TestSignInLoadsProfile(t *testing.T) {
	f := newFixture()

	var states []State
	unsub := f.orch.Subscribe(func(s Snapshot) { states = append(states, s.State) })
	defer unsub()

	signIn(t, f)

	snap := f.orch.Snapshot()
	if snap.State != StateAuthenticated {
		t.Fatalf("state = %v", snap.State)
	}
	if snap.User == nil || snap.User.ID != "u-support" {
		t.Fatalf("user = %+v", snap.User)
	}
	if snap.Org == nil || snap.Org.ID != "org-sp" {
		t.Fatalf("org = %+v", snap.Org)
	}
	if snap.Membership == nil || snap.Membership.Role != roles.RoleSupport {
		t.Fatalf("membership = %+v", snap.Membership)
	}
	// Loading was visible before the profile landed.
	if len(states) < 2 || states[0] != StateLoadingProfile || states[len(states)-1] != StateAuthenticated {
		t.Fatalf("transition sequence = %v", states)
	}
}

func TestSignInMissingProfileIsBenign(t *testing.T) {
	f := newFixture()
	f.auth.signInRes = &identityservice.AuthResult{UserID: "u-ghost", AccessToken: "a", RefreshToken: "r"}

	signIn(t, f)

	snap := f.orch.Snapshot()
	if snap.State != StateAuthenticatedNoProfile {
		t.Fatalf("state = %v, want AuthenticatedNoProfile", snap.State)
	}
	if snap.Org != nil || snap.Membership != nil {
		t.Fatalf("stale profile data: %+v", snap)
	}
}

func TestFetchUserDataErrorClearsOrgKeepsSession(t *testing.T) {
	f := newFixture()
	signIn(t, f)

	f.readers.usersErr = errors.New("backend down")
	if _, err := f.orch.FetchUserData(context.Background(), "u-support"); err == nil {
		t.Fatal("expected fetch error")
	}
	snap := f.orch.Snapshot()
	if snap.Loading {
		t.Fatal("loading flag not cleared")
	}
	if snap.Org != nil {
		t.Fatal("organization shown after failed fetch")
	}
	if snap.State != StateAuthenticated {
		t.Fatalf("state = %v, session should survive a fetch failure", snap.State)
	}
}

func TestImpersonateSwapsContextAndSetsOverlay(t *testing.T) {
	f := newFixture()
	signIn(t, f)

	if err := f.orch.ImpersonateUser(context.Background(), "u-target"); err != nil {
		t.Fatalf("ImpersonateUser: %v", err)
	}
	snap := f.orch.Snapshot()
	if !snap.Impersonating() {
		t.Fatal("overlay not set")
	}
	if snap.User.ID != "u-target" || snap.Org.ID != "org-acme" || snap.Membership.Role != roles.RoleMember {
		t.Fatalf("context not swapped to target: %+v", snap)
	}
	ov := snap.Overlay
	if ov.TargetUser.ID != "u-target" || ov.SupportUser.ID != "u-support" || ov.Token != "grant-token" {
		t.Fatalf("overlay = %+v", ov)
	}
}

func TestImpersonateStartFailureKeepsState(t *testing.T) {
	f := newFixture()
	signIn(t, f)
	before := f.orch.Snapshot()

	f.imp.startErr = errors.New("grant persistence failed")
	if err := f.orch.ImpersonateUser(context.Background(), "u-target"); err == nil {
		t.Fatal("expected error")
	}
	after := f.orch.Snapshot()
	if after.Impersonating() || after.User.ID != before.User.ID || after.Org.ID != before.Org.ID {
		t.Fatalf("state changed despite failed grant: %+v", after)
	}
}

func TestImpersonateProfileFailureRevokesGrant(t *testing.T) {
	f := newFixture()
	signIn(t, f)

	delete(f.readers.users, "u-target")
	if err := f.orch.ImpersonateUser(context.Background(), "u-target"); err == nil {
		t.Fatal("expected error")
	}
	if len(f.imp.stopped) != 1 || f.imp.stopped[0] != "grant-token" {
		t.Fatalf("orphaned grant not revoked: %v", f.imp.stopped)
	}
	if f.orch.Snapshot().User.ID != "u-support" {
		t.Fatal("support context lost")
	}
}

func TestStopImpersonationRestoresSupportContext(t *testing.T) {
	f := newFixture()
	signIn(t, f)
	if err := f.orch.ImpersonateUser(context.Background(), "u-target"); err != nil {
		t.Fatalf("ImpersonateUser: %v", err)
	}

	// Every snapshot seen during the stop transition must carry a user:
	// there is no transient "nobody" state between target and support.
	sawEmpty := false
	unsub := f.orch.Subscribe(func(s Snapshot) {
		if s.User == nil {
			sawEmpty = true
		}
	})
	defer unsub()

	if err := f.orch.StopImpersonation(context.Background()); err != nil {
		t.Fatalf("StopImpersonation: %v", err)
	}
	if sawEmpty {
		t.Fatal("transient empty identity during stop")
	}
	snap := f.orch.Snapshot()
	if snap.Impersonating() {
		t.Fatal("overlay still set")
	}
	if snap.User.ID != "u-support" || snap.Org.ID != "org-sp" {
		t.Fatalf("support context not restored: %+v", snap)
	}
	if len(f.imp.stopped) != 1 {
		t.Fatalf("grant not revoked: %v", f.imp.stopped)
	}
}

func TestStopImpersonationWithoutOverlayIsNoop(t *testing.T) {
	f := newFixture()
	signIn(t, f)
	if err := f.orch.StopImpersonation(context.Background()); err != nil {
		t.Fatalf("StopImpersonation: %v", err)
	}
	if len(f.imp.stopped) != 0 {
		t.Fatal("Stop called with no active overlay")
	}
}

func TestStopImpersonationRevokeFailureKeepsOverlay(t *testing.T) {
	f := newFixture()
	signIn(t, f)
	if err := f.orch.ImpersonateUser(context.Background(), "u-target"); err != nil {
		t.Fatalf("ImpersonateUser: %v", err)
	}
	f.imp.stopErr = errors.New("backend down")
	if err := f.orch.StopImpersonation(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !f.orch.Snapshot().Impersonating() {
		t.Fatal("overlay cleared despite failed revoke")
	}
}

func TestSignOutClearsEverything(t *testing.T) {
	f := newFixture()
	signIn(t, f)
	if err := f.orch.ImpersonateUser(context.Background(), "u-target"); err != nil {
		t.Fatalf("ImpersonateUser: %v", err)
	}

	if err := f.orch.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	snap := f.orch.Snapshot()
	if snap.State != StateUnauthenticated {
		t.Fatalf("state = %v", snap.State)
	}
	if snap.User != nil || snap.Org != nil || snap.Membership != nil || len(snap.Teams) != 0 || snap.Overlay != nil {
		t.Fatalf("stale state after sign-out: %+v", snap)
	}
	if snap.AccessToken != "" || snap.RefreshToken != "" {
		t.Fatal("tokens survived sign-out")
	}
	if len(f.auth.signedOut) != 1 || f.auth.signedOut[0] != "refresh-1" {
		t.Fatalf("session not revoked: %v", f.auth.signedOut)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFixture()
	signIn(t, f)

	snap := f.orch.Snapshot()
	snap.User.Name = "Mallory"
	snap.Org.Name = "Mallory Corp"

	again := f.orch.Snapshot()
	if again.User.Name != "Sam Support" || again.Org.Name != "StrategyPilot" {
		t.Fatal("snapshot mutation leaked into orchestrator state")
	}
}

func TestSignUpProfileErrLandsNoProfile(t *testing.T) {
	f := newFixture()
	f.auth.signUpRes = &identityservice.AuthResult{
		UserID:     "u-new",
		ProfileErr: errors.New("membership write failed"),
	}

	res, err := f.orch.SignUp(context.Background(), "new@acme.com", "Sup3rSecret!", "New", "Acme", "")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if res.ProfileErr == nil {
		t.Fatal("ProfileErr not propagated")
	}
	if f.orch.Snapshot().State != StateAuthenticatedNoProfile {
		t.Fatalf("state = %v, want AuthenticatedNoProfile", f.orch.Snapshot().State)
	}
	if f.orch.ProfileErr() == nil {
		t.Fatal("ProfileErr not retained")
	}
}
