package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/scrumtogether/scrumtogether-api/internal/model"
)

// UserRepository persists user accounts. Soft-deleted rows stay in the table
// with deleted_at set; finders are explicit about whether they include them.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository on the given GORM handle.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns the account with the given username, including
// soft-deleted accounts. Matching is case-insensitive.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindActiveByUsername returns the non-deleted account with the given
// username, matched case-insensitively.
func (r *UserRepository) FindActiveByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ? AND deleted_at IS NULL", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindActiveByID returns the non-deleted account with the given ID.
func (r *UserRepository) FindActiveByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByID returns the account with the given ID, including soft-deleted ones.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ExistsByUsername reports whether an active account holds the username,
// matched case-insensitively.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(username) = ? AND deleted_at IS NULL", strings.ToLower(username)).
		Count(&count).Error
	return count > 0, err
}

// ExistsByEmail reports whether an active account holds the email, matched
// case-insensitively.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(email) = ? AND deleted_at IS NULL", strings.ToLower(email)).
		Count(&count).Error
	return count > 0, err
}

// Create persists a new account.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// List returns a page of active accounts ordered by username, plus the total
// number of active accounts.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("deleted_at IS NULL").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("username").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SaveVersioned writes the user's mutable columns guarded by its version.
// The write only lands when the stored version still equals user.Version; on
// success user.Version is incremented, otherwise ErrVersionConflict is
// returned and the user is left untouched.
func (r *UserRepository) SaveVersioned(ctx context.Context, user *model.User) error {
	expected := user.Version
	res := r.db.WithContext(ctx).Model(user).
		Where("version = ?", expected).
		Updates(map[string]interface{}{
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"email":          user.Email,
			"username":       user.Username,
			"password":       user.Password,
			"role":           user.Role,
			"verified_email": user.VerifiedEmail,
			"version":        expected + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	user.Version = expected + 1
	return nil
}

// SoftDelete marks the user as deleted, recording who deleted it. The write
// is guarded by the user's version.
func (r *UserRepository) SoftDelete(ctx context.Context, user *model.User, deletedBy string) error {
	expected := user.Version
	now := time.Now()
	res := r.db.WithContext(ctx).Model(user).
		Where("version = ? AND deleted_at IS NULL", expected).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"deleted_by": deletedBy,
			"version":    expected + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	user.DeletedAt = &now
	user.DeletedBy = &deletedBy
	user.Version = expected + 1
	return nil
}

// Restore clears the soft-delete markers of a deleted user.
func (r *UserRepository) Restore(ctx context.Context, user *model.User) error {
	expected := user.Version
	res := r.db.WithContext(ctx).Model(user).
		Where("version = ? AND deleted_at IS NOT NULL", expected).
		Updates(map[string]interface{}{
			"deleted_at": nil,
			"deleted_by": nil,
			"version":    expected + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	user.DeletedAt = nil
	user.DeletedBy = nil
	user.Version = expected + 1
	return nil
}

// CountActiveAdmins returns the number of active accounts with the admin role.
func (r *UserRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("role = ? AND deleted_at IS NULL", model.RoleAdmin).
		Count(&count).Error
	return count, err
}
