package mocks

import "github.com/stretchr/testify/mock"

type TenantGatewayMock struct {
	mock.Mock
}

func (m *TenantGatewayMock) ConnectedClientsByTenant(tenantID string) int {
	args := m.Called(tenantID)
	return args.Int(0)
}

func (m *TenantGatewayMock) ClientsInRoom(room string) int {
	args := m.Called(room)
	return args.Int(0)
}

func (m *TenantGatewayMock) DisconnectTenant(tenantID string) int {
	args := m.Called(tenantID)
	return args.Int(0)
}
