// Package auth issues and validates bearer tokens and digests passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
)

// JWTValidator validates JWT tokens and extracts claims.
type JWTValidator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// Claims is the token payload. Subject holds the user id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AsSubject converts validated claims into the authorization subject.
func (c *Claims) AsSubject() access.Subject {
	return access.Subject{ID: c.RegisteredClaims.Subject, Email: c.Email, Role: access.Role(c.Role)}
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string    `json:"token"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// HMACConfig configures HS256 tokens.
type HMACConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// HMACTokens issues and validates HS256 tokens with a shared secret.
type HMACTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

// NewHMACTokens creates an HS256 issuer and validator.
func NewHMACTokens(cfg HMACConfig, log logger.Logger) (*HMACTokens, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &HMACTokens{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		logger: log,
		now:    time.Now,
	}, nil
}

// Issue signs a token for user. The user must carry an id, email and role.
func (t *HMACTokens) Issue(user *model.User) (*Token, error) {
	if user == nil || user.ID.IsZero() || user.Email == "" || user.Role == "" {
		return nil, errors.New("failed to generate token from this object")
	}
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt.UTC()}, nil
}

// Validate verifies signature, expiry and issuer and returns the claims.
func (t *HMACTokens) Validate(_ context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.RegisteredClaims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if !access.Role(claims.Role).Valid() {
		return nil, fmt.Errorf("token carries unknown role %q", claims.Role)
	}

	t.logger.Debug("token validated successfully", "subject", claims.RegisteredClaims.Subject, "role", claims.Role)
	return claims, nil
}
