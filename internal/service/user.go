package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/logger"
	"github.com/scrumtogether/scrumtogether-api/internal/model"
	"github.com/scrumtogether/scrumtogether-api/internal/ratelimit"
	"github.com/scrumtogether/scrumtogether-api/internal/repository"
	"github.com/scrumtogether/scrumtogether-api/internal/validation"
)

const userUpdateRateKey = "user-update:"

// UserService implements account listing, updates, soft deletion and restore.
// Updates are throttled per target account and guarded by optimistic locking.
type UserService struct {
	users   *repository.UserRepository
	teams   *repository.TeamRepository
	audit   *repository.AuditRepository
	limiter *ratelimit.Registry
	log     *logger.Logger
}

// NewUserService creates a user service.
func NewUserService(users *repository.UserRepository, teams *repository.TeamRepository, audit *repository.AuditRepository, limiter *ratelimit.Registry) *UserService {
	return &UserService{
		users:   users,
		teams:   teams,
		audit:   audit,
		limiter: limiter,
		log:     logger.WithComponent("user-service"),
	}
}

// List returns a page of active accounts.
func (s *UserService) List(ctx context.Context, page, pageSize int) (*UserPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	users, total, err := s.users.List(ctx, page*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &UserPage{Users: users, Page: page, PageSize: pageSize, TotalItems: total}, nil
}

// GetByID returns the active account with the given ID.
func (s *UserService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// Update applies an account update on behalf of actor. Writes are throttled
// per acting principal, require a matching optimistic-lock version, and are
// restricted to the account owner or an admin. Owners cannot change their own
// role or email-verification flag.
func (s *UserService) Update(ctx context.Context, actor *model.User, id uint, req UserUpdate) (*model.User, error) {
	if !s.limiter.TryAcquire(userUpdateRateKey+actor.Username, s.limiter.AcquireTimeout()) {
		s.log.Warn("Update rate limit exceeded", logger.Fields(logger.FieldUsername, actor.Username))
		return nil, apperrors.RateLimited("Too many update requests. Please wait before trying again.")
	}

	user, err := s.users.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal(err)
	}

	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	if req.ID != 0 && req.ID != id {
		return nil, apperrors.Validation("User ID in path and payload do not match")
	}
	if req.Version != user.Version {
		return nil, apperrors.OptimisticLock("User")
	}

	self := actor.ID == user.ID
	if !self && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("You are not allowed to update this user")
	}

	if req.Role != nil && *req.Role != user.Role {
		if self {
			return nil, apperrors.Forbidden("You cannot change your own role")
		}
		if !actor.IsAdmin() {
			return nil, apperrors.Forbidden("Only admins can change roles")
		}
	}
	if req.VerifiedEmail != nil && *req.VerifiedEmail != user.VerifiedEmail && self {
		return nil, apperrors.Forbidden("You cannot change your own email verification")
	}

	changes := map[string]interface{}{}
	if req.FirstName != user.FirstName {
		changes["firstName"] = req.FirstName
		user.FirstName = req.FirstName
	}
	if req.LastName != user.LastName {
		changes["lastName"] = req.LastName
		user.LastName = req.LastName
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if taken {
			return nil, apperrors.Conflict("Email already exists")
		}
		changes["email"] = email
		user.Email = email
		// A new address starts unverified.
		user.VerifiedEmail = false
	}

	if req.Role != nil && *req.Role != user.Role {
		changes["role"] = *req.Role
		user.Role = *req.Role
	}
	if req.VerifiedEmail != nil && *req.VerifiedEmail != user.VerifiedEmail && actor.IsAdmin() {
		changes["verifiedEmail"] = *req.VerifiedEmail
		user.VerifiedEmail = *req.VerifiedEmail
	}

	if err := s.users.SaveVersioned(ctx, user); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.OptimisticLock("User")
		}
		return nil, apperrors.Internal(err)
	}

	s.recordAudit(ctx, user.ID, model.AuditActionUpdate, actor.Username, changes)
	s.log.Info("User updated", logger.Fields(
		logger.FieldUsername, user.Username,
		"actor", actor.Username,
	))
	return user, nil
}

// Delete soft-deletes an account. Only admins or the account owner may
// delete; the last admin cannot be deleted, nor can an account that is still
// a team member.
func (s *UserService) Delete(ctx context.Context, actor *model.User, id uint) error {
	user, err := s.users.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User")
		}
		return apperrors.Internal(err)
	}

	if actor.ID != user.ID && !actor.IsAdmin() {
		return apperrors.Forbidden("You are not allowed to delete this user")
	}

	if user.IsAdmin() {
		admins, err := s.users.CountActiveAdmins(ctx)
		if err != nil {
			return apperrors.Internal(err)
		}
		if admins <= 1 {
			return apperrors.Conflict("Cannot delete the last admin account")
		}
	}

	memberships, err := s.teams.CountMembershipsForUser(ctx, user.ID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if memberships > 0 {
		return apperrors.Conflict("User is still a member of one or more teams")
	}

	if err := s.users.SoftDelete(ctx, user, actor.Username); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.OptimisticLock("User")
		}
		return apperrors.Internal(err)
	}

	s.recordAudit(ctx, user.ID, model.AuditActionDelete, actor.Username, map[string]interface{}{
		"username": user.Username,
	})
	s.log.Info("User deleted", logger.Fields(
		logger.FieldUsername, user.Username,
		"actor", actor.Username,
	))
	return nil
}

// Restore brings a soft-deleted account back. Admin only.
func (s *UserService) Restore(ctx context.Context, actor *model.User, id uint) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can restore users")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Internal(err)
	}
	if !user.IsDeleted() {
		return nil, apperrors.Conflict("User is not deleted")
	}

	if err := s.users.Restore(ctx, user); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.OptimisticLock("User")
		}
		return nil, apperrors.Internal(err)
	}

	s.recordAudit(ctx, user.ID, model.AuditActionRestore, actor.Username, map[string]interface{}{
		"username": user.Username,
	})
	s.log.Info("User restored", logger.Fields(
		logger.FieldUsername, user.Username,
		"actor", actor.Username,
	))
	return user, nil
}

// recordAudit writes an audit entry. Failures are logged but do not fail the
// mutation that already landed.
func (s *UserService) recordAudit(ctx context.Context, entityID uint, action model.AuditAction, actor string, detail map[string]interface{}) {
	payload, err := json.Marshal(detail)
	if err != nil {
		payload = []byte("{}")
	}
	entry := &model.AuditLog{
		EntityType: "user",
		EntityID:   entityID,
		Action:     action,
		Actor:      actor,
		Detail:     string(payload),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.log.Warn("Failed to write audit entry", logger.ErrorFields("audit", err))
	}
}
