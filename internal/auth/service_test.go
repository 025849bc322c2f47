package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/auth/password"
	"github.com/scrumtogether/scrumtogether-api/internal/model"
)

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	u, ok := s.users[strings.ToLower(username)]
	return ok && !u.IsDeleted(), nil
}

func (s *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && !u.IsDeleted() {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Create(_ context.Context, user *model.User) error {
	s.users[strings.ToLower(user.Username)] = user
	return nil
}

func validRegistration() RegistrationRequest {
	return RegistrationRequest{
		LastName:        "Doe",
		FirstName:       "John",
		Email:           "john@example.com",
		Username:        "john.doe",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func newTestService() (*Service, *fakeUserStore) {
	store := newFakeUserStore()
	return NewService(store, password.NewBcryptHasher(4)), store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != model.RoleDefault {
		t.Errorf("expected DEFAULT role, got %s", user.Role)
	}
	if user.Password == "secret123" {
		t.Error("password must be stored hashed")
	}
	if _, ok := store.users["john.doe"]; !ok {
		t.Fatal("user not persisted")
	}

	got, err := svc.Authenticate(ctx, SignInRequest{Username: "john.doe", Password: "secret123"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.Username != "john.doe" {
		t.Errorf("unexpected user %q", got.Username)
	}
}

func TestRegisterRejectsMismatchedPasswords(t *testing.T) {
	svc, _ := newTestService()

	req := validRegistration()
	req.ConfirmPassword = "different1"
	_, err := svc.Register(context.Background(), req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if !strings.Contains(appErr.Message, "Passwords do not match") {
		t.Errorf("expected pair violation in %q", appErr.Message)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	dup := validRegistration()
	dup.Email = "other@example.com"
	_, err := svc.Register(ctx, dup)
	if err == nil || !strings.Contains(err.Error(), "Username already exists") {
		t.Errorf("expected duplicate-username failure, got %v", err)
	}

	dup = validRegistration()
	dup.Username = "other.name"
	_, err = svc.Register(ctx, dup)
	if err == nil || !strings.Contains(err.Error(), "Email already exists") {
		t.Errorf("expected duplicate-email failure, got %v", err)
	}
}

func TestAuthenticateNormalizesFailures(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Wrong password and unknown user yield the identical message: the
	// response must not disclose whether the account exists.
	_, errWrongPass := svc.Authenticate(ctx, SignInRequest{Username: "john.doe", Password: "wrongpass1"})
	_, errUnknown := svc.Authenticate(ctx, SignInRequest{Username: "nobody.here", Password: "wrongpass1"})
	for _, err := range []error{errWrongPass, errUnknown} {
		appErr, ok := apperrors.AsAppError(err)
		if !ok || appErr.Message != "Invalid credentials" {
			t.Errorf("expected normalized Invalid credentials, got %v", err)
		}
	}

	now := time.Now()
	store.users["john.doe"].DeletedAt = &now
	_, err := svc.Authenticate(ctx, SignInRequest{Username: "john.doe", Password: "secret123"})
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Message != "Account is disabled" {
		t.Errorf("expected disabled-account failure, got %v", err)
	}
}
