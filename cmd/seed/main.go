// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"strategypilot/backend/internal/config"
	"strategypilot/backend/internal/db"
	identitydomain "strategypilot/backend/internal/identity/domain"
	identityrepo "strategypilot/backend/internal/identity/repository"
	membershipdomain "strategypilot/backend/internal/membership/domain"
	membershiprepo "strategypilot/backend/internal/membership/repository"
	orgdomain "strategypilot/backend/internal/organization/domain"
	orgrepo "strategypilot/backend/internal/organization/repository"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/security"
	teamdomain "strategypilot/backend/internal/team/domain"
	teamrepo "strategypilot/backend/internal/team/repository"
	userdomain "strategypilot/backend/internal/user/domain"
	userrepo "strategypilot/backend/internal/user/repository"
)

const (
	devAdminEmail   = "admin@example.com"
	devMemberEmail  = "member@example.com"
	devSupportEmail = "support@strategypilot.io"
	devPassword     = "Dev3lopment!Pass"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(database)
	identities := identityrepo.NewPostgresRepository(database)
	orgs := orgrepo.NewPostgresRepository(database)
	teams := teamrepo.NewPostgresRepository(database)
	memberships := membershiprepo.NewPostgresRepository(database)
	hasher := security.NewHasher(cfg.BcryptCost)

	existing, err := users.GetByEmail(ctx, devAdminEmail)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if existing != nil {
		log.Printf("seed: %s already exists, nothing to do", devAdminEmail)
		return
	}

	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash: %v", err)
	}
	now := time.Now().UTC()

	mustCreateOrg := func(name, domain string) *orgdomain.Org {
		o := &orgdomain.Org{
			ID:        uuid.New().String(),
			Name:      name,
			Domain:    domain,
			Status:    orgdomain.OrgStatusActive,
			CreatedAt: now,
		}
		if err := orgs.Create(ctx, o); err != nil {
			log.Fatalf("seed: org %s: %v", name, err)
		}
		return o
	}
	mustCreateTeam := func(orgID, name string) *teamdomain.Team {
		t := &teamdomain.Team{ID: uuid.New().String(), OrgID: orgID, Name: name, CreatedAt: now}
		if err := teams.Create(ctx, t); err != nil {
			log.Fatalf("seed: team %s: %v", name, err)
		}
		return t
	}
	mustCreateUser := func(email, name string) *userdomain.User {
		u := &userdomain.User{
			ID:                      uuid.New().String(),
			Email:                   email,
			Name:                    name,
			Status:                  userdomain.UserStatusActive,
			PasswordPolicyCompliant: true,
			CreatedAt:               now,
			UpdatedAt:               now,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed: user %s: %v", email, err)
		}
		confirmed := now
		if err := identities.Create(ctx, &identitydomain.Identity{
			ID:           uuid.New().String(),
			UserID:       u.ID,
			Provider:     identitydomain.IdentityProviderLocal,
			ProviderID:   email,
			PasswordHash: hash,
			ConfirmedAt:  &confirmed,
			CreatedAt:    now,
		}); err != nil {
			log.Fatalf("seed: identity %s: %v", email, err)
		}
		return u
	}
	mustJoin := func(userID, orgID string, teamID *string, role roles.Role) {
		if err := memberships.Create(ctx, &membershipdomain.Membership{
			ID:        uuid.New().String(),
			UserID:    userID,
			OrgID:     orgID,
			TeamID:    teamID,
			Role:      role,
			CreatedAt: now,
		}); err != nil {
			log.Fatalf("seed: membership: %v", err)
		}
	}

	org := mustCreateOrg("Example Inc", "example.com")
	unassigned := mustCreateTeam(org.ID, teamdomain.UnassignedName)
	product := mustCreateTeam(org.ID, "Product")

	admin := mustCreateUser(devAdminEmail, "Dev Admin")
	mustJoin(admin.ID, org.ID, &unassigned.ID, roles.RoleOrgAdmin)

	member := mustCreateUser(devMemberEmail, "Dev Member")
	mustJoin(member.ID, org.ID, &product.ID, roles.RoleMember)

	supportOrg := mustCreateOrg("StrategyPilot Support", "strategypilot.io")
	supportUnassigned := mustCreateTeam(supportOrg.ID, teamdomain.UnassignedName)
	support := mustCreateUser(devSupportEmail, "Support Staff")
	mustJoin(support.ID, supportOrg.ID, &supportUnassigned.ID, roles.RoleSupport)

	log.Printf("seed: created org %s with users %s, %s and support user %s (password %q)",
		org.Name, devAdminEmail, devMemberEmail, devSupportEmail, devPassword)
}
