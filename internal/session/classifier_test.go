package session

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"order-realtime/internal/auth"
	"order-realtime/internal/mocks"
	"order-realtime/internal/models"
)

func TestClassifyCustomerFromQuery(t *testing.T) {
	c := NewClassifier(nil)

	conn, err := c.Classify(context.Background(), Handshake{TenantID: "t1", Role: "customer", TableID: "5"})
	require.NoError(t, err)
	assert.Equal(t, "t1", conn.TenantID)
	assert.Equal(t, models.RoleCustomer, conn.Role)
	assert.Equal(t, "5", conn.TableID)
	assert.Empty(t, conn.UserID)
}

func TestClassifyCustomerWithoutTable(t *testing.T) {
	c := NewClassifier(nil)

	conn, err := c.Classify(context.Background(), Handshake{TenantID: "t1", Role: "customer"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, conn.Role)
	assert.Empty(t, conn.TableID)
}

func TestClassifyStaffFromQueryIgnoresTable(t *testing.T) {
	c := NewClassifier(nil)

	conn, err := c.Classify(context.Background(), Handshake{TenantID: "t1", Role: "STAFF", TableID: "5"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, conn.Role)
	assert.Empty(t, conn.TableID)
}

func TestClassifyQueryFailures(t *testing.T) {
	c := NewClassifier(nil)

	cases := []struct {
		name string
		hs   Handshake
		err  error
	}{
		{"empty", Handshake{}, ErrMissingTenant},
		{"no role", Handshake{TenantID: "t1"}, ErrMissingRole},
		{"no tenant", Handshake{Role: "customer", TableID: "5"}, ErrMissingTenant},
		{"bad role", Handshake{TenantID: "t1", Role: "chef"}, ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Classify(context.Background(), tc.hs)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestClassifyStaffFromToken(t *testing.T) {
	verifier := new(mocks.TokenVerifierMock)
	verifier.On("Verify", mock.Anything, "good").Return(auth.Claims{TenantID: "t1", Subject: "u9"}, nil).Once()
	c := NewClassifier(verifier)

	conn, err := c.Classify(context.Background(), Handshake{Authorization: "Bearer good"})
	require.NoError(t, err)
	assert.Equal(t, "t1", conn.TenantID)
	assert.Equal(t, models.RoleStaff, conn.Role)
	assert.Equal(t, "u9", conn.UserID)
	verifier.AssertExpectations(t)
}

func TestClassifyTokenFromAuthField(t *testing.T) {
	verifier := new(mocks.TokenVerifierMock)
	verifier.On("Verify", mock.Anything, "good").Return(auth.Claims{TenantID: "t1", Subject: "u9"}, nil).Once()
	c := NewClassifier(verifier)

	conn, err := c.Classify(context.Background(), Handshake{Token: "good"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, conn.Role)
	verifier.AssertExpectations(t)
}

func TestClassifyTokenFailureNeverFallsBackToQuery(t *testing.T) {
	verifier := new(mocks.TokenVerifierMock)
	verifier.On("Verify", mock.Anything, "bad").Return(nil, auth.ErrInvalidToken).Once()
	c := NewClassifier(verifier)

	_, err := c.Classify(context.Background(), Handshake{
		Authorization: "Bearer bad",
		TenantID:      "t1",
		Role:          "customer",
		TableID:       "5",
	})
	require.ErrorIs(t, err, ErrInvalidCredential)
	verifier.AssertExpectations(t)
}

func TestClassifyTokenMissingClaims(t *testing.T) {
	verifier := new(mocks.TokenVerifierMock)
	verifier.On("Verify", mock.Anything, "notenant").Return(auth.Claims{Subject: "u9"}, nil).Once()
	verifier.On("Verify", mock.Anything, "nosub").Return(auth.Claims{TenantID: "t1"}, nil).Once()
	c := NewClassifier(verifier)

	_, err := c.Classify(context.Background(), Handshake{Token: "notenant"})
	require.ErrorIs(t, err, ErrMissingClaims)

	_, err = c.Classify(context.Background(), Handshake{Token: "nosub"})
	require.ErrorIs(t, err, ErrMissingClaims)
	verifier.AssertExpectations(t)
}

func TestClassifyMalformedAuthorizationHeader(t *testing.T) {
	verifier := new(mocks.TokenVerifierMock)
	c := NewClassifier(verifier)

	_, err := c.Classify(context.Background(), Handshake{Authorization: "Basic abc", TenantID: "t1", Role: "staff"})
	require.ErrorIs(t, err, ErrInvalidCredential)
	verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestHandshakeFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/orders?tenantId=t1&role=customer&tableId=5&token=abc", nil)
	req.Header.Set("Authorization", "Bearer xyz")

	hs := HandshakeFromRequest(req)
	assert.Equal(t, "Bearer xyz", hs.Authorization)
	assert.Equal(t, "abc", hs.Token)
	assert.Equal(t, "t1", hs.TenantID)
	assert.Equal(t, "customer", hs.Role)
	assert.Equal(t, "5", hs.TableID)
	assert.True(t, hs.HasCredential())
}
