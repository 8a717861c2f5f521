package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Claims are the verified identity fields of a staff token.
type Claims struct {
	TenantID string
	Subject  string
	Role     string
}

type tokenClaims struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 tokens issued by the platform's auth service.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier constructs a verifier. An empty issuer disables the issuer check.
func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// Verify checks signature and expiry and returns the decoded claims.
// Presence of tenantId and subject is left to the caller.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	if err := ctx.Err(); err != nil {
		return Claims{}, err
	}
	if token == "" {
		return Claims{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	return Claims{TenantID: claims.TenantID, Subject: subject, Role: claims.Role}, nil
}

// Sign issues a token for the given identity. Used by tooling and tests.
func (v *JWTVerifier) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		TenantID: claims.TenantID,
		Role:     claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(v.secret)
}
