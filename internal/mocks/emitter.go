package mocks

import (
	"github.com/stretchr/testify/mock"

	"order-realtime/internal/models"
)

// EmitterMock stands in for the gateway's outbound emit operations.
type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) EmitNewOrder(tenantID string, order models.Order) error {
	args := m.Called(tenantID, order)
	return args.Error(0)
}

func (m *EmitterMock) EmitOrderStatusChanged(tenantID string, order models.Order) error {
	args := m.Called(tenantID, order)
	return args.Error(0)
}

func (m *EmitterMock) EmitPaymentCompleted(tenantID, orderID string, payment models.Payment) error {
	args := m.Called(tenantID, orderID, payment)
	return args.Error(0)
}

func (m *EmitterMock) EmitOrderTimerUpdate(tenantID, orderID string, elapsedMinutes int, priority models.Priority) error {
	args := m.Called(tenantID, orderID, elapsedMinutes, priority)
	return args.Error(0)
}

func (m *EmitterMock) EmitOrderListUpdate(tenantID string, orders []models.Order) error {
	args := m.Called(tenantID, orders)
	return args.Error(0)
}

func (m *EmitterMock) EmitBillRequested(tenantID string, bill models.BillRequest) error {
	args := m.Called(tenantID, bill)
	return args.Error(0)
}
