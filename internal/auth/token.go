// Package auth implements stateless JWT authentication: token issuance and
// verification, and the registration / sign-in service.
package auth

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/scrumtogether/scrumtogether-api/internal/model"
)

// TokenConfig configures the token service.
type TokenConfig struct {
	// Secret is the HMAC signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`

	// TTL is the lifetime of issued tokens (default: 1h). All tokens share
	// the same validity window; TTL is fixed at configuration time.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *TokenConfig) ApplyDefaults() {
	if c.TTL == 0 {
		c.TTL = time.Hour
	}
}

// Validate checks required fields.
func (c *TokenConfig) Validate() error {
	if c.Secret == "" {
		return errors.New("auth: jwt secret is required")
	}
	return nil
}

// Claims are the registered claims carried by issued tokens. The subject is
// the principal's username.
type Claims struct {
	gojwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens. Verification is
// stateless: signature plus expiry, no server-side session lookup.
type TokenService struct {
	cfg TokenConfig
}

// NewTokenService creates a token service from configuration.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenService{cfg: cfg}, nil
}

// Generate produces a signed token for the user: subject is the username,
// issued-at is now, expiry is now plus the configured TTL.
func (s *TokenService) Generate(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ExpirationSeconds returns the configured token TTL in seconds, reported to
// clients alongside issued tokens.
func (s *TokenService) ExpirationSeconds() int64 {
	return int64(s.cfg.TTL.Seconds())
}

// ExtractUsername parses and verifies the token signature and returns the
// embedded subject. Malformed, expired, or foreign-key tokens fail with an
// error; a spoofed subject is never returned.
func (s *TokenService) ExtractUsername(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether the token belongs to the expected user and has not
// expired. Invalid tokens yield false, never an error.
func (s *TokenService) IsValid(tokenString string, user *model.User) bool {
	claims, err := s.parse(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == user.Username
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return claims, nil
}

func (s *TokenService) keyFunc(token *gojwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(s.cfg.Secret), nil
}
