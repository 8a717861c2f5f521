package ws

import (
	"encoding/json"
	"time"

	"order-realtime/internal/models"
)

// Inbound client events.
const (
	EventSubscribeStaff    = "subscribe:staff"
	EventSubscribeCustomer = "subscribe:customer"
	EventPing              = "ping"
)

// Outbound events.
const (
	EventAck              = "ack"
	EventConnected        = "connected"
	EventError            = "error"
	EventDisconnected     = "disconnected"
	EventNewOrder         = "NEW_ORDER"
	EventStatusChanged    = "STATUS_CHANGED"
	EventPaymentCompleted = "order:payment_completed"
	EventTimerUpdate      = "order:timer_update"
	EventListUpdate       = "order:list_update"
	EventBillRequested    = "order:bill_requested"
)

// PongReply is the literal acknowledgment to a ping.
const PongReply = "pong"

// Envelope is a single JSON text frame in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID int64           `json:"ackId,omitempty"`
}

// outbound is the encoding form of Envelope.
type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	AckID int64       `json:"ackId,omitempty"`
}

func encode(event string, data interface{}, ackID int64) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data, AckID: ackID})
}

// ConnectedPayload acknowledges a classified connection.
type ConnectedPayload struct {
	ConnectionID string      `json:"connectionId"`
	TenantID     string      `json:"tenantId"`
	Role         models.Role `json:"role"`
	UserID       string      `json:"userId,omitempty"`
	TableID      string      `json:"tableId,omitempty"`
	Rooms        []string    `json:"rooms"`
	ConnectedAt  time.Time   `json:"connectedAt"`
}

// ErrorPayload carries a human-readable failure.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DisconnectedPayload precedes a server-initiated close.
type DisconnectedPayload struct {
	Reason string `json:"reason"`
}

// SubscribeStaffRequest is the data of subscribe:staff.
type SubscribeStaffRequest struct {
	TenantID string `json:"tenantId"`
}

// SubscribeCustomerRequest is the data of subscribe:customer.
type SubscribeCustomerRequest struct {
	TenantID string `json:"tenantId"`
	TableID  string `json:"tableId"`
}

// SubscribeAck answers either subscribe request.
type SubscribeAck struct {
	Success bool   `json:"success"`
	Room    string `json:"room"`
	Error   string `json:"error,omitempty"`
}

// OrderPayload is sent with NEW_ORDER and STATUS_CHANGED.
type OrderPayload struct {
	Order     models.Order `json:"order"`
	Timestamp time.Time    `json:"timestamp"`
}

// PaymentCompletedPayload is sent with order:payment_completed.
type PaymentCompletedPayload struct {
	OrderID   string         `json:"orderId"`
	Payment   models.Payment `json:"payment"`
	Timestamp time.Time      `json:"timestamp"`
}

// TimerUpdatePayload is sent with order:timer_update.
type TimerUpdatePayload struct {
	OrderID        string          `json:"orderId"`
	ElapsedMinutes int             `json:"elapsedMinutes"`
	Priority       models.Priority `json:"priority"`
	Timestamp      time.Time       `json:"timestamp"`
}

// ListUpdatePayload is sent with order:list_update.
type ListUpdatePayload struct {
	Orders    []models.Order `json:"orders"`
	Timestamp time.Time      `json:"timestamp"`
}

// BillRequestedPayload is sent with order:bill_requested.
type BillRequestedPayload struct {
	models.BillRequest
	Timestamp time.Time `json:"timestamp"`
}
