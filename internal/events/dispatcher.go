package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"order-realtime/internal/models"
)

// Order-lifecycle message types published by the order and payment services.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypePaymentCompleted   = "payment.completed"
	TypeOrderListSnapshot  = "order.list_snapshot"
	TypeBillRequested      = "order.bill_requested"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidEvent     = errors.New("invalid event")
)

// Message is one order-lifecycle notification.
type Message struct {
	Type     string              `json:"type"`
	TenantID string              `json:"tenantId"`
	Order    *models.Order       `json:"order,omitempty"`
	Orders   []models.Order      `json:"orders,omitempty"`
	OrderID  string              `json:"orderId,omitempty"`
	Payment  *models.Payment     `json:"payment,omitempty"`
	Bill     *models.BillRequest `json:"bill,omitempty"`
}

// Emitter is the gateway's outbound surface used by the dispatcher.
type Emitter interface {
	EmitNewOrder(tenantID string, order models.Order) error
	EmitOrderStatusChanged(tenantID string, order models.Order) error
	EmitPaymentCompleted(tenantID, orderID string, payment models.Payment) error
	EmitOrderListUpdate(tenantID string, orders []models.Order) error
	EmitBillRequested(tenantID string, bill models.BillRequest) error
}

// Dispatcher routes order-lifecycle messages to gateway emits.
type Dispatcher struct {
	emitter Emitter
}

func NewDispatcher(emitter Emitter) *Dispatcher {
	return &Dispatcher{emitter: emitter}
}

// Handle decodes body and dispatches it.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return d.Dispatch(ctx, msg)
}

// Dispatch validates msg and calls the matching emit operation.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.TenantID == "" {
		return fmt.Errorf("%w: tenantId is required", ErrInvalidEvent)
	}

	var err error
	switch msg.Type {
	case TypeOrderCreated, TypeOrderStatusChanged:
		if msg.Order == nil || msg.Order.ID == "" {
			return fmt.Errorf("%w: %s requires order", ErrInvalidEvent, msg.Type)
		}
		order := *msg.Order
		if order.TenantID == "" {
			order.TenantID = msg.TenantID
		}
		if msg.Type == TypeOrderCreated {
			err = d.emitter.EmitNewOrder(msg.TenantID, order)
		} else {
			err = d.emitter.EmitOrderStatusChanged(msg.TenantID, order)
		}
	case TypePaymentCompleted:
		if msg.Payment == nil {
			return fmt.Errorf("%w: %s requires payment", ErrInvalidEvent, msg.Type)
		}
		orderID := msg.OrderID
		if orderID == "" {
			orderID = msg.Payment.OrderID
		}
		if orderID == "" {
			return fmt.Errorf("%w: %s requires orderId", ErrInvalidEvent, msg.Type)
		}
		err = d.emitter.EmitPaymentCompleted(msg.TenantID, orderID, *msg.Payment)
	case TypeOrderListSnapshot:
		err = d.emitter.EmitOrderListUpdate(msg.TenantID, msg.Orders)
	case TypeBillRequested:
		if msg.Bill == nil || msg.Bill.TableID == "" {
			return fmt.Errorf("%w: %s requires bill.tableId", ErrInvalidEvent, msg.Type)
		}
		err = d.emitter.EmitBillRequested(msg.TenantID, *msg.Bill)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, msg.Type)
	}
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", msg.Type, err)
	}

	log.Debug().Str("type", msg.Type).Str("tenant_id", msg.TenantID).Msg("order event dispatched")
	return nil
}
