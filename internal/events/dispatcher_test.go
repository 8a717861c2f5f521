package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"order-realtime/internal/mocks"
	"order-realtime/internal/models"
)

func TestHandleOrderCreated(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	emitter.On("EmitNewOrder", "t1", mock.MatchedBy(func(o models.Order) bool {
		return o.ID == "o1" && o.TenantID == "t1" && o.TableID == "5"
	})).Return(nil).Once()

	d := NewDispatcher(emitter)
	err := d.Handle(context.Background(), []byte(`{"type":"order.created","tenantId":"t1","order":{"id":"o1","tableId":"5","status":"RECEIVED"}}`))

	require.NoError(t, err)
	emitter.AssertExpectations(t)
}

func TestHandleStatusChanged(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	emitter.On("EmitOrderStatusChanged", "t1", mock.MatchedBy(func(o models.Order) bool {
		return o.ID == "o1" && o.Status == models.OrderStatusPreparing
	})).Return(nil).Once()

	err := NewDispatcher(emitter).Handle(context.Background(),
		[]byte(`{"type":"order.status_changed","tenantId":"t1","order":{"id":"o1","tenantId":"t1","tableId":"5","status":"PREPARING"}}`))

	require.NoError(t, err)
	emitter.AssertExpectations(t)
}

func TestDispatchPaymentFallsBackToPaymentOrderID(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	payment := models.Payment{ID: "p1", OrderID: "o7", Amount: 18}
	emitter.On("EmitPaymentCompleted", "t1", "o7", payment).Return(nil).Once()

	err := NewDispatcher(emitter).Dispatch(context.Background(), Message{
		Type:     TypePaymentCompleted,
		TenantID: "t1",
		Payment:  &payment,
	})

	require.NoError(t, err)
	emitter.AssertExpectations(t)
}

func TestDispatchListAndBill(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	orders := []models.Order{{ID: "o1"}, {ID: "o2"}}
	bill := models.BillRequest{TableID: "5", PaymentMethod: "card"}
	emitter.On("EmitOrderListUpdate", "t1", orders).Return(nil).Once()
	emitter.On("EmitBillRequested", "t1", bill).Return(nil).Once()

	d := NewDispatcher(emitter)
	require.NoError(t, d.Dispatch(context.Background(), Message{Type: TypeOrderListSnapshot, TenantID: "t1", Orders: orders}))
	require.NoError(t, d.Dispatch(context.Background(), Message{Type: TypeBillRequested, TenantID: "t1", Bill: &bill}))
	emitter.AssertExpectations(t)
}

func TestDispatchRejectsBadMessages(t *testing.T) {
	d := NewDispatcher(new(mocks.EmitterMock))
	ctx := context.Background()

	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `{`, ErrInvalidEvent},
		{"missing tenant", `{"type":"order.created","order":{"id":"o1"}}`, ErrInvalidEvent},
		{"missing order", `{"type":"order.created","tenantId":"t1"}`, ErrInvalidEvent},
		{"missing payment", `{"type":"payment.completed","tenantId":"t1","orderId":"o1"}`, ErrInvalidEvent},
		{"missing payment order", `{"type":"payment.completed","tenantId":"t1","payment":{"id":"p1"}}`, ErrInvalidEvent},
		{"missing bill table", `{"type":"order.bill_requested","tenantId":"t1","bill":{}}`, ErrInvalidEvent},
		{"unknown type", `{"type":"order.deleted","tenantId":"t1"}`, ErrUnknownEventType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, d.Handle(ctx, []byte(tt.body)), tt.want)
		})
	}
}

func TestDispatchWrapsEmitError(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	emitErr := errors.New("encode failed")
	emitter.On("EmitNewOrder", "t1", mock.Anything).Return(emitErr).Once()

	err := NewDispatcher(emitter).Dispatch(context.Background(), Message{
		Type:     TypeOrderCreated,
		TenantID: "t1",
		Order:    &models.Order{ID: "o1"},
	})
	assert.ErrorIs(t, err, emitErr)
}

func TestDispatchHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewDispatcher(new(mocks.EmitterMock)).Dispatch(ctx, Message{Type: TypeOrderCreated, TenantID: "t1"})
	assert.ErrorIs(t, err, context.Canceled)
}
