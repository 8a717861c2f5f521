// Package session classifies incoming realtime connections as staff (verified token)
// or customer (anonymous, table scoped).
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"order-realtime/internal/auth"
	"order-realtime/internal/models"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrMissingClaims     = errors.New("token is missing tenantId or subject")
	ErrMissingTenant     = errors.New("tenantId is required")
	ErrMissingRole       = errors.New("role is required")
	ErrInvalidRole       = errors.New("role must be staff or customer")
)

// TokenVerifier decodes and verifies a bearer credential.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Claims, error)
}

// Handshake is the credential and query data presented when a client connects.
type Handshake struct {
	// Authorization is the raw Authorization header value.
	Authorization string
	// Token is the explicit auth field (?token=).
	Token string

	TenantID string
	Role     string
	TableID  string
}

// HandshakeFromRequest extracts handshake data from a websocket upgrade request.
func HandshakeFromRequest(r *http.Request) Handshake {
	q := r.URL.Query()
	return Handshake{
		Authorization: r.Header.Get("Authorization"),
		Token:         q.Get("token"),
		TenantID:      strings.TrimSpace(q.Get("tenantId")),
		Role:          strings.TrimSpace(q.Get("role")),
		TableID:       strings.TrimSpace(q.Get("tableId")),
	}
}

// HasCredential reports whether any credential was supplied.
func (h Handshake) HasCredential() bool {
	return strings.TrimSpace(h.Authorization) != "" || strings.TrimSpace(h.Token) != ""
}

// credential returns the bearer token. The Authorization header wins over the auth field.
func (h Handshake) credential() (string, error) {
	if header := strings.TrimSpace(h.Authorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", ErrInvalidCredential
		}
		return strings.TrimSpace(parts[1]), nil
	}
	return strings.TrimSpace(h.Token), nil
}

// Classifier turns a Handshake into a Connection record.
type Classifier struct {
	verifier TokenVerifier
}

// NewClassifier constructs a Classifier.
func NewClassifier(verifier TokenVerifier) *Classifier {
	return &Classifier{verifier: verifier}
}

// Classify resolves tenant, role, user and table for a connecting client. Once a credential is
// presented only the token path is evaluated; query parameters are never used as a fallback.
// The returned Connection has no ConnID or ConnectedAt; the gateway assigns those.
func (c *Classifier) Classify(ctx context.Context, hs Handshake) (models.Connection, error) {
	if hs.HasCredential() {
		return c.classifyToken(ctx, hs)
	}
	return classifyQuery(hs)
}

func (c *Classifier) classifyToken(ctx context.Context, hs Handshake) (models.Connection, error) {
	token, err := hs.credential()
	if err != nil {
		return models.Connection{}, err
	}
	if c.verifier == nil {
		return models.Connection{}, fmt.Errorf("%w: no verifier configured", ErrInvalidCredential)
	}

	claims, err := c.verifier.Verify(ctx, token)
	if err != nil {
		return models.Connection{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if claims.TenantID == "" || claims.Subject == "" {
		return models.Connection{}, ErrMissingClaims
	}

	return models.Connection{
		TenantID: claims.TenantID,
		Role:     models.RoleStaff,
		UserID:   claims.Subject,
	}, nil
}

func classifyQuery(hs Handshake) (models.Connection, error) {
	if hs.TenantID == "" {
		return models.Connection{}, ErrMissingTenant
	}
	if hs.Role == "" {
		return models.Connection{}, ErrMissingRole
	}

	role := models.Role(strings.ToLower(hs.Role))
	if !role.Valid() {
		return models.Connection{}, ErrInvalidRole
	}

	conn := models.Connection{TenantID: hs.TenantID, Role: role}
	if role == models.RoleCustomer {
		conn.TableID = hs.TableID
	}
	return conn, nil
}
