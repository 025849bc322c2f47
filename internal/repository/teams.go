package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/scrumtogether/scrumtogether-api/internal/model"
)

// ErrAlreadyMember is returned when adding a user to a team they already
// belong to.
var ErrAlreadyMember = errors.New("user is already a team member")

// TeamRepository persists teams and their memberships.
type TeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a team repository on the given GORM handle.
func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create persists a new team together with its initial memberships.
func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

// FindByID returns a team with its memberships and member accounts loaded.
func (r *TeamRepository) FindByID(ctx context.Context, id uint) (*model.Team, error) {
	var team model.Team
	err := r.db.WithContext(ctx).
		Preload("TeamUsers").
		Preload("TeamUsers.User").
		First(&team, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &team, nil
}

// List returns a page of teams ordered by name, plus the total team count.
func (r *TeamRepository) List(ctx context.Context, offset, limit int) ([]model.Team, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Team{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var teams []model.Team
	err := r.db.WithContext(ctx).
		Preload("TeamUsers").
		Order("name").
		Offset(offset).Limit(limit).
		Find(&teams).Error
	if err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

// Save writes the team's own columns. Memberships are managed separately.
func (r *TeamRepository) Save(ctx context.Context, team *model.Team) error {
	return r.db.WithContext(ctx).Model(team).
		Updates(map[string]interface{}{
			"name":        team.Name,
			"description": team.Description,
			"email":       team.Email,
		}).Error
}

// Delete removes the team and all its memberships in one transaction.
func (r *TeamRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&model.TeamUser{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Team{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// FindMembership returns the membership row linking a user to a team.
func (r *TeamRepository) FindMembership(ctx context.Context, teamID, userID uint) (*model.TeamUser, error) {
	var membership model.TeamUser
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}

// AddMember links a user to a team with the given role.
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID uint, role model.TeamRole) (*model.TeamUser, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TeamUser{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyMember
	}

	membership := &model.TeamUser{TeamID: teamID, UserID: userID, TeamRole: role}
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// UpdateMemberRole changes the team-scoped role of an existing membership.
func (r *TeamRepository) UpdateMemberRole(ctx context.Context, teamID, userID uint, role model.TeamRole) error {
	res := r.db.WithContext(ctx).Model(&model.TeamUser{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Update("team_role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember unlinks a user from a team.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&model.TeamUser{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountMembershipsForUser returns how many teams the user belongs to.
func (r *TeamRepository) CountMembershipsForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TeamUser{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
