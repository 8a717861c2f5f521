package ws

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"order-realtime/internal/models"
	"order-realtime/internal/observability"
)

// EmitNewOrder notifies the tenant's staff of a finalized order.
func (g *Gateway) EmitNewOrder(tenantID string, order models.Order) error {
	return g.emit(EventNewOrder, OrderPayload{Order: order, Timestamp: g.now()}, StaffRoom(tenantID))
}

// EmitOrderStatusChanged notifies staff and, when the order has a table, that table's customers.
func (g *Gateway) EmitOrderStatusChanged(tenantID string, order models.Order) error {
	rooms := []string{StaffRoom(tenantID)}
	if order.TableID != "" {
		rooms = append(rooms, CustomerRoom(tenantID, order.TableID))
	}
	return g.emit(EventStatusChanged, OrderPayload{Order: order, Timestamp: g.now()}, rooms...)
}

// EmitPaymentCompleted notifies staff that an order was paid.
func (g *Gateway) EmitPaymentCompleted(tenantID, orderID string, payment models.Payment) error {
	return g.emit(EventPaymentCompleted, PaymentCompletedPayload{
		OrderID:   orderID,
		Payment:   payment,
		Timestamp: g.now(),
	}, StaffRoom(tenantID))
}

// EmitOrderTimerUpdate pushes aging telemetry for one order to staff.
func (g *Gateway) EmitOrderTimerUpdate(tenantID, orderID string, elapsedMinutes int, priority models.Priority) error {
	return g.emit(EventTimerUpdate, TimerUpdatePayload{
		OrderID:        orderID,
		ElapsedMinutes: elapsedMinutes,
		Priority:       priority,
		Timestamp:      g.now(),
	}, StaffRoom(tenantID))
}

// EmitOrderListUpdate pushes a full order snapshot to staff.
func (g *Gateway) EmitOrderListUpdate(tenantID string, orders []models.Order) error {
	if orders == nil {
		orders = []models.Order{}
	}
	return g.emit(EventListUpdate, ListUpdatePayload{Orders: orders, Timestamp: g.now()}, StaffRoom(tenantID))
}

// EmitBillRequested tells staff a table wants to pay.
func (g *Gateway) EmitBillRequested(tenantID string, bill models.BillRequest) error {
	if bill.RequestedAt.IsZero() {
		bill.RequestedAt = g.now()
	}
	return g.emit(EventBillRequested, BillRequestedPayload{BillRequest: bill, Timestamp: g.now()}, StaffRoom(tenantID))
}

// DisconnectTenant notifies and closes every connection in the tenant's staff room.
// Delivery of the notice is best-effort; it returns the number of connections closed.
func (g *Gateway) DisconnectTenant(tenantID string) int {
	room := StaffRoom(tenantID)
	members := g.hub.Members(room)
	if len(members) == 0 {
		return 0
	}

	payload, err := encode(EventDisconnected, DisconnectedPayload{Reason: "tenant disconnected"}, 0)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("encode disconnect notice failed")
	}

	sent, failed := 0, 0
	for _, c := range members {
		if payload != nil && c.enqueue(payload) {
			sent++
		} else {
			failed++
		}
		g.HandleDisconnect(c.ID(), "tenant disconnected")
	}
	observability.AddEmitResult(EventDisconnected, sent, failed)

	log.Info().Str("tenant_id", tenantID).Str("room", room).Int("closed", len(members)).Int("notice_failed", failed).Msg("tenant disconnected")
	return len(members)
}

// emit fans one event out to rooms. Delivery is at-most-once: slow or closed
// recipients are counted as failed and never retried.
func (g *Gateway) emit(event string, data interface{}, rooms ...string) error {
	payload, err := encode(event, data, 0)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	for _, room := range rooms {
		sent, failed := g.hub.Broadcast(room, payload)
		observability.AddEmitResult(event, sent, failed)

		entry := log.Debug()
		if failed > 0 {
			entry = log.Warn()
		}
		entry.Str("event", event).Str("room", room).Int("sent", sent).Int("failed", failed).Msg("emit")
	}
	return nil
}
