package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/model"
	"github.com/scrumtogether/scrumtogether-api/internal/ratelimit"
	"github.com/scrumtogether/scrumtogether-api/internal/repository"
)

type fixture struct {
	db      *gorm.DB
	users   *repository.UserRepository
	teams   *repository.TeamRepository
	service *UserService
	limiter *ratelimit.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Team{}, &model.TeamUser{}, &model.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepository(db)
	teams := repository.NewTeamRepository(db)
	audit := repository.NewAuditRepository(db)
	limiter := ratelimit.NewRegistry(ratelimit.Config{
		RequestsPerMinute: 1000,
		AcquireTimeout:    time.Millisecond,
	})
	t.Cleanup(limiter.Stop)

	return &fixture{
		db:      db,
		users:   users,
		teams:   teams,
		service: NewUserService(users, teams, audit, limiter),
		limiter: limiter,
	}
}

func (f *fixture) seedUser(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()

	user := &model.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     username + "@example.com",
		Username:  username,
		Password:  "hashed",
		Role:      role,
	}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
	return user
}

func wantStatus(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error %v is not an AppError", err)
	}
	if appErr.HTTPStatus != status {
		t.Fatalf("status = %d (%s), want %d", appErr.HTTPStatus, appErr.Message, status)
	}
	return appErr
}

func baseUpdate(user *model.User) UserUpdate {
	return UserUpdate{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Version:   user.Version,
	}
}

func TestUserServiceListDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		f.seedUser(t, name, model.RoleDefault)
	}

	page, err := f.service.List(ctx, -5, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Page != 0 || page.PageSize != 20 {
		t.Fatalf("paging = (%d, %d), want (0, 20)", page.Page, page.PageSize)
	}
	if page.TotalItems != 3 || len(page.Users) != 3 {
		t.Fatalf("items = (%d, %d), want 3", page.TotalItems, len(page.Users))
	}

	page, err = f.service.List(ctx, 0, 500)
	if err != nil {
		t.Fatalf("List with oversized page: %v", err)
	}
	if page.PageSize != 100 {
		t.Fatalf("page size = %d, want capped 100", page.PageSize)
	}
}

func TestUserServiceUpdateSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t, "alice", model.RoleDefault)

	req := baseUpdate(user)
	req.FirstName = "Alicia"
	updated, err := f.service.Update(ctx, user, user.ID, req)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.FirstName != "Alicia" {
		t.Fatalf("first name = %q, want Alicia", updated.FirstName)
	}
	if updated.Version != 1 {
		t.Fatalf("version = %d, want 1", updated.Version)
	}
}

func TestUserServiceUpdateSelfCannotChangeVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The rule holds regardless of role: even an admin cannot flip their
	// own verification flag.
	admin := f.seedUser(t, "root", model.RoleAdmin)
	verified := true
	req := baseUpdate(admin)
	req.VerifiedEmail = &verified
	_, err := f.service.Update(ctx, admin, admin.ID, req)
	wantStatus(t, err, http.StatusForbidden)

	user := f.seedUser(t, "sam", model.RoleDefault)
	req = baseUpdate(user)
	req.VerifiedEmail = &verified
	_, err = f.service.Update(ctx, user, user.ID, req)
	wantStatus(t, err, http.StatusForbidden)

	// A different admin may change it.
	req = baseUpdate(user)
	req.VerifiedEmail = &verified
	updated, err := f.service.Update(ctx, admin, user.ID, req)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if !updated.VerifiedEmail {
		t.Fatal("expected verification flag set by admin")
	}
}

func TestUserServiceUpdateSelfCannotChangeRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t, "bob", model.RoleDefault)

	req := baseUpdate(user)
	admin := model.RoleAdmin
	req.Role = &admin
	_, err := f.service.Update(ctx, user, user.ID, req)
	wantStatus(t, err, http.StatusForbidden)
}

func TestUserServiceUpdateByOtherRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	target := f.seedUser(t, "carol", model.RoleDefault)
	other := f.seedUser(t, "dave", model.RoleDefault)
	admin := f.seedUser(t, "root", model.RoleAdmin)

	req := baseUpdate(target)
	req.LastName = "Changed"
	_, err := f.service.Update(ctx, other, target.ID, req)
	wantStatus(t, err, http.StatusForbidden)

	updated, err := f.service.Update(ctx, admin, target.ID, req)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.LastName != "Changed" {
		t.Fatalf("last name = %q, want Changed", updated.LastName)
	}
}

func TestUserServiceUpdateStaleVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t, "erin", model.RoleDefault)

	req := baseUpdate(user)
	req.FirstName = "First"
	if _, err := f.service.Update(ctx, user, user.ID, req); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Same request again still carries version 0.
	req.FirstName = "Second"
	_, err := f.service.Update(ctx, user, user.ID, req)
	appErr := wantStatus(t, err, http.StatusConflict)
	if appErr.Code != apperrors.ErrCodeOptimisticLock {
		t.Fatalf("code = %s, want %s", appErr.Code, apperrors.ErrCodeOptimisticLock)
	}
}

func TestUserServiceUpdateEmailResetsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t, "frank", model.RoleDefault)
	if err := f.db.Model(user).Update("verified_email", true).Error; err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	user.VerifiedEmail = true

	req := baseUpdate(user)
	req.Email = "Frank.New@Example.com"
	updated, err := f.service.Update(ctx, user, user.ID, req)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Email != "frank.new@example.com" {
		t.Fatalf("email = %q, want lowercased", updated.Email)
	}
	if updated.VerifiedEmail {
		t.Fatal("email change must reset verification")
	}
}

func TestUserServiceUpdateDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, "gina", model.RoleDefault)
	user := f.seedUser(t, "hank", model.RoleDefault)

	req := baseUpdate(user)
	req.Email = "GINA@example.com"
	_, err := f.service.Update(ctx, user, user.ID, req)
	wantStatus(t, err, http.StatusConflict)
}

func newThrottledService(t *testing.T, f *fixture) *UserService {
	t.Helper()

	limiter := ratelimit.NewRegistry(ratelimit.Config{
		RequestsPerMinute: 1,
		AcquireTimeout:    time.Millisecond,
	})
	t.Cleanup(limiter.Stop)
	audit := repository.NewAuditRepository(f.db)
	return NewUserService(f.users, f.teams, audit, limiter)
}

func TestUserServiceUpdateThrottled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t, "ivan", model.RoleDefault)
	svc := newThrottledService(t, f)

	req := baseUpdate(user)
	req.FirstName = "Ivan"
	updated, err := svc.Update(ctx, user, user.ID, req)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	req = baseUpdate(updated)
	req.FirstName = "Ivan II"
	_, err = svc.Update(ctx, updated, updated.ID, req)
	appErr := wantStatus(t, err, http.StatusTooManyRequests)
	if appErr.Message != "Too many update requests. Please wait before trying again." {
		t.Fatalf("unexpected message %q", appErr.Message)
	}
}

func TestUserServiceUpdateThrottledPerActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.seedUser(t, "root", model.RoleAdmin)
	first := f.seedUser(t, "nina", model.RoleDefault)
	second := f.seedUser(t, "omar", model.RoleDefault)
	svc := newThrottledService(t, f)

	req := baseUpdate(first)
	req.FirstName = "Nina"
	if _, err := svc.Update(ctx, admin, first.ID, req); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// The bucket belongs to the acting principal, so a second immediate
	// update by the same admin is throttled even against a different target.
	req = baseUpdate(second)
	req.FirstName = "Omar"
	_, err := svc.Update(ctx, admin, second.ID, req)
	wantStatus(t, err, http.StatusTooManyRequests)

	// A different actor carries a fresh bucket.
	req = baseUpdate(second)
	req.FirstName = "Omar"
	if _, err := svc.Update(ctx, second, second.ID, req); err != nil {
		t.Fatalf("update by different actor: %v", err)
	}
}

func TestUserServiceUpdateThrottleDoesNotStarveTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	target := f.seedUser(t, "pia", model.RoleDefault)
	other := f.seedUser(t, "quentin", model.RoleDefault)
	svc := newThrottledService(t, f)

	// A stranger hammering someone else's account spends their own budget,
	// not the target's.
	for i := 0; i < 3; i++ {
		_, err := svc.Update(ctx, other, target.ID, baseUpdate(target))
		if appErr, ok := apperrors.AsAppError(err); !ok ||
			(appErr.HTTPStatus != http.StatusForbidden && appErr.HTTPStatus != http.StatusTooManyRequests) {
			t.Fatalf("foreign update error = %v, want Forbidden or RateLimited", err)
		}
	}

	req := baseUpdate(target)
	req.FirstName = "Pia"
	if _, err := svc.Update(ctx, target, target.ID, req); err != nil {
		t.Fatalf("self update after foreign attempts: %v", err)
	}
}

func TestUserServiceDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.seedUser(t, "root", model.RoleAdmin)
	user := f.seedUser(t, "jane", model.RoleDefault)
	other := f.seedUser(t, "kate", model.RoleDefault)

	// Only admin or self may delete.
	err := f.service.Delete(ctx, other, user.ID)
	wantStatus(t, err, http.StatusForbidden)

	// The last admin is protected.
	err = f.service.Delete(ctx, admin, admin.ID)
	wantStatus(t, err, http.StatusConflict)

	// Team members cannot be deleted while memberships exist.
	team := &model.Team{Name: "Core"}
	if err := f.teams.Create(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if _, err := f.teams.AddMember(ctx, team.ID, user.ID, model.TeamRoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}
	err = f.service.Delete(ctx, admin, user.ID)
	wantStatus(t, err, http.StatusConflict)

	if err := f.teams.RemoveMember(ctx, team.ID, user.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if err := f.service.Delete(ctx, admin, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = f.service.GetByID(ctx, user.ID)
	wantStatus(t, err, http.StatusNotFound)
}

func TestUserServiceRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.seedUser(t, "root", model.RoleAdmin)
	user := f.seedUser(t, "luke", model.RoleDefault)

	if err := f.service.Delete(ctx, admin, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Non-admins may not restore, even themselves.
	_, err := f.service.Restore(ctx, user, user.ID)
	wantStatus(t, err, http.StatusForbidden)

	restored, err := f.service.Restore(ctx, admin, user.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.IsDeleted() {
		t.Fatal("user still deleted after restore")
	}

	// Restoring an active account is a conflict.
	_, err = f.service.Restore(ctx, admin, user.ID)
	wantStatus(t, err, http.StatusConflict)
}

func TestUserServiceAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.seedUser(t, "root", model.RoleAdmin)
	user := f.seedUser(t, "mona", model.RoleDefault)

	req := baseUpdate(user)
	req.FirstName = "Monica"
	if _, err := f.service.Update(ctx, admin, user.ID, req); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := f.service.Delete(ctx, admin, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	audit := repository.NewAuditRepository(f.db)
	entries, err := audit.ListForEntity(ctx, "user", user.ID)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Actor != "root" {
			t.Fatalf("actor = %q, want root", e.Actor)
		}
	}
}
