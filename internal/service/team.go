package service

import (
	"context"
	"errors"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/logger"
	"github.com/scrumtogether/scrumtogether-api/internal/model"
	"github.com/scrumtogether/scrumtogether-api/internal/repository"
	"github.com/scrumtogether/scrumtogether-api/internal/validation"
)

// TeamService implements team CRUD and membership management.
type TeamService struct {
	teams *repository.TeamRepository
	users *repository.UserRepository
	log   *logger.Logger
}

// NewTeamService creates a team service.
func NewTeamService(teams *repository.TeamRepository, users *repository.UserRepository) *TeamService {
	return &TeamService{
		teams: teams,
		users: users,
		log:   logger.WithComponent("team-service"),
	}
}

// List returns a page of teams.
func (s *TeamService) List(ctx context.Context, page, pageSize int) (*TeamPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	teams, total, err := s.teams.List(ctx, page*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &TeamPage{Teams: teams, Page: page, PageSize: pageSize, TotalItems: total}, nil
}

// GetByID returns a team with its memberships loaded.
func (s *TeamService) GetByID(ctx context.Context, id uint) (*model.Team, error) {
	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Team")
		}
		return nil, apperrors.Internal(err)
	}
	return team, nil
}

// Create validates the payload, checks that every named member is an active
// account, and persists the team with its initial memberships.
func (s *TeamService) Create(ctx context.Context, req TeamCreate) (*model.Team, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkMembers(ctx, req.Members); err != nil {
		return nil, err
	}

	team := &model.Team{
		Name:        req.Name,
		Description: req.Description,
		Email:       req.Email,
	}
	for _, m := range req.Members {
		team.TeamUsers = append(team.TeamUsers, model.TeamUser{
			UserID:   m.UserID,
			TeamRole: m.TeamRole,
		})
	}

	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.log.Info("Team created", logger.Fields("team", team.Name))
	return s.GetByID(ctx, team.ID)
}

// Update writes the team's own fields and, when a member list is supplied,
// reconciles memberships against it: new members are added, changed roles
// updated, absent members removed.
func (s *TeamService) Update(ctx context.Context, id uint, req TeamUpdate) (*model.Team, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Team")
		}
		return nil, apperrors.Internal(err)
	}

	team.Name = req.Name
	team.Description = req.Description
	team.Email = req.Email
	if err := s.teams.Save(ctx, team); err != nil {
		return nil, apperrors.Internal(err)
	}

	if req.Members != nil {
		if err := s.reconcileMembers(ctx, team, *req.Members); err != nil {
			return nil, err
		}
	}
	return s.GetByID(ctx, id)
}

// Delete removes a team and its memberships.
func (s *TeamService) Delete(ctx context.Context, id uint) error {
	if err := s.teams.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Team")
		}
		return apperrors.Internal(err)
	}
	s.log.Info("Team deleted", logger.Fields("teamId", id))
	return nil
}

// checkMembers verifies that every member references an active account and
// that no account appears twice.
func (s *TeamService) checkMembers(ctx context.Context, members []TeamMemberInput) error {
	seen := make(map[uint]bool, len(members))
	for _, m := range members {
		if seen[m.UserID] {
			return apperrors.Validation("Duplicate team member")
		}
		seen[m.UserID] = true

		if _, err := s.users.FindActiveByID(ctx, m.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("User")
			}
			return apperrors.Internal(err)
		}
	}
	return nil
}

func (s *TeamService) reconcileMembers(ctx context.Context, team *model.Team, members []TeamMemberInput) error {
	if err := s.checkMembers(ctx, members); err != nil {
		return err
	}

	desired := make(map[uint]model.TeamRole, len(members))
	for _, m := range members {
		desired[m.UserID] = m.TeamRole
	}

	for _, existing := range team.TeamUsers {
		role, keep := desired[existing.UserID]
		if !keep {
			if err := s.teams.RemoveMember(ctx, team.ID, existing.UserID); err != nil {
				return apperrors.Internal(err)
			}
			continue
		}
		if role != existing.TeamRole {
			if err := s.teams.UpdateMemberRole(ctx, team.ID, existing.UserID, role); err != nil {
				return apperrors.Internal(err)
			}
		}
		delete(desired, existing.UserID)
	}

	for userID, role := range desired {
		if _, err := s.teams.AddMember(ctx, team.ID, userID, role); err != nil {
			if errors.Is(err, repository.ErrAlreadyMember) {
				continue
			}
			return apperrors.Internal(err)
		}
	}
	return nil
}
