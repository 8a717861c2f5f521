package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// PublisherMock records lifecycle and audit publishes.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	return m.Called(ctx, routingKey, event, headers).Error(0)
}

func (m *PublisherMock) Close() error {
	return m.Called().Error(0)
}

var _ interface {
	Publish(context.Context, string, any, map[string]string) error
	Close() error
} = (*PublisherMock)(nil)
