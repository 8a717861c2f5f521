package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"order-realtime/internal/models"
)

type OrderRepositoryMock struct {
	mock.Mock
}

func (m *OrderRepositoryMock) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	var orders []models.Order
	if val := args.Get(0); val != nil {
		orders = val.([]models.Order)
	}
	return orders, args.Error(1)
}
