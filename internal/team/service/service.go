package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/team/domain"
)

// Sentinel errors for the team service.
var (
	ErrNotAllowed        = errors.New("caller may not manage teams")
	ErrTeamNotFound      = errors.New("team not found")
	ErrUnassignedLocked  = errors.New("the Unassigned team cannot be renamed or deleted")
	ErrDuplicateTeamName = errors.New("a team with this name already exists")
)

// TeamRepo is the minimal team repository needed by the service.
type TeamRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	GetByOrgAndName(ctx context.Context, orgID, name string) (*domain.Team, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Team, error)
	Create(ctx context.Context, t *domain.Team) error
	Rename(ctx context.Context, id, name string) error
	DeleteReassigning(ctx context.Context, id, fallbackTeamID string) error
}

// Service manages teams within an organization. The Unassigned team is
// load-bearing: it receives members of deleted teams and so can never itself
// be renamed or deleted.
type Service struct {
	teams TeamRepo
}

// NewService returns a team Service.
func NewService(teams TeamRepo) *Service {
	return &Service{teams: teams}
}

// List returns the org's teams.
func (s *Service) List(ctx context.Context, orgID string) ([]*domain.Team, error) {
	return s.teams.ListByOrg(ctx, orgID)
}

// Create adds a team to the org. Requires CanManageOrganization; names are
// unique within the org.
func (s *Service) Create(ctx context.Context, actorRole roles.Role, orgID, name string) (*domain.Team, error) {
	if !roles.CanManageOrganization(actorRole) {
		return nil, ErrNotAllowed
	}
	name = strings.TrimSpace(name)
	team := &domain.Team{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := team.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.teams.GetByOrgAndName(ctx, orgID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateTeamName
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// Rename changes a team's name. The Unassigned team is refused.
func (s *Service) Rename(ctx context.Context, actorRole roles.Role, orgID, teamID, name string) error {
	if !roles.CanManageOrganization(actorRole) {
		return ErrNotAllowed
	}
	team, err := s.orgTeam(ctx, orgID, teamID)
	if err != nil {
		return err
	}
	if team.IsUnassigned() {
		return ErrUnassignedLocked
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}
	if name == domain.UnassignedName {
		return ErrDuplicateTeamName
	}
	existing, err := s.teams.GetByOrgAndName(ctx, orgID, name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != teamID {
		return ErrDuplicateTeamName
	}
	return s.teams.Rename(ctx, teamID, name)
}

// Delete removes a team, reassigning its members to the org's Unassigned
// team in the same transaction. The Unassigned team is refused.
func (s *Service) Delete(ctx context.Context, actorRole roles.Role, orgID, teamID string) error {
	if !roles.CanManageOrganization(actorRole) {
		return ErrNotAllowed
	}
	team, err := s.orgTeam(ctx, orgID, teamID)
	if err != nil {
		return err
	}
	if team.IsUnassigned() {
		return ErrUnassignedLocked
	}
	fallback, err := s.teams.GetByOrgAndName(ctx, orgID, domain.UnassignedName)
	if err != nil {
		return err
	}
	if fallback == nil {
		return errors.New("organization has no Unassigned team")
	}
	return s.teams.DeleteReassigning(ctx, teamID, fallback.ID)
}

func (s *Service) orgTeam(ctx context.Context, orgID, teamID string) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil || team.OrgID != orgID {
		return nil, ErrTeamNotFound
	}
	return team, nil
}
