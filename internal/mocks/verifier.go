package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"order-realtime/internal/auth"
)

type TokenVerifierMock struct {
	mock.Mock
}

func (m *TokenVerifierMock) Verify(ctx context.Context, token string) (auth.Claims, error) {
	args := m.Called(ctx, token)
	var claims auth.Claims
	if val := args.Get(0); val != nil {
		claims = val.(auth.Claims)
	}
	return claims, args.Error(1)
}

var _ interface {
	Verify(context.Context, string) (auth.Claims, error)
} = (*TokenVerifierMock)(nil)
