package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAccessAndRefresh(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	id := AccessIdentity{SessionID: "s1", UserID: "u1", OrgID: "o1", Role: "OrgAdmin"}

	access, accessJti, exp, err := p.IssueAccess(id)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" || accessJti == "" {
		t.Fatal("access token or jti empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	refresh, jti, refreshExp, err := p.IssueRefresh(id.SessionID, id.UserID, id.OrgID)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if refresh == "" || jti == "" {
		t.Fatal("refresh token or jti empty")
	}
	if refreshExp.Before(time.Now()) {
		t.Fatal("refresh expires at in the past")
	}

	sid, jti2, uid, oid, err := p.ValidateRefresh(refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if sid != id.SessionID || jti2 != jti || uid != id.UserID || oid != id.OrgID {
		t.Errorf("ValidateRefresh: got sessionID=%q jti=%q userID=%q orgID=%q", sid, jti2, uid, oid)
	}
}

func TestTokenProvider_ValidateRefreshInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	_, _, _, _, err = p.ValidateRefresh("invalid-token")
	if err != ErrInvalidToken {
		t.Errorf("ValidateRefresh invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	issued := AccessIdentity{SessionID: "s1", UserID: "u1", OrgID: "o1", Role: "Support", ActorID: "support-1"}
	access, _, _, err := p.IssueAccess(issued)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	got, err := p.ValidateAccess(access)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if got != issued {
		t.Errorf("ValidateAccess: got %+v, want %+v", got, issued)
	}
}

func TestTokenProvider_ValidateAccessInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.ValidateAccess("invalid-token"); err != ErrInvalidToken {
		t.Errorf("ValidateAccess invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestNewOpaqueTokenUnique(t *testing.T) {
	a, b := NewOpaqueToken(), NewOpaqueToken()
	if a == "" || a == b {
		t.Errorf("opaque tokens not unique: %q %q", a, b)
	}
}
