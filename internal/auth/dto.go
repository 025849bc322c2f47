package auth

import "strings"

// RegistrationRequest is the payload for POST /api/v1/register.
// Password and ConfirmPassword must match; the pair check is object-level
// and reported alongside any per-field violations.
type RegistrationRequest struct {
	LastName        string `json:"lastName" validate:"required"`
	FirstName       string `json:"firstName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=3,max=50,username"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ConfirmedPair declares the password confirmation constraint.
func (r RegistrationRequest) ConfirmedPair() (*string, *string, string) {
	return &r.Password, &r.ConfirmPassword, "Passwords do not match"
}

// Normalize trims surrounding whitespace from identity fields. Passwords are
// preserved as-is.
func (r *RegistrationRequest) Normalize() {
	r.LastName = strings.TrimSpace(r.LastName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
}

// SignInRequest is the payload for POST /api/v1/sign-in.
type SignInRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignInResponse carries the issued token and its validity in seconds.
type SignInResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}
