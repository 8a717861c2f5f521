package models

import "time"

// OrderStatus is the lifecycle state of an order as owned by the order service.
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "RECEIVED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusServed    OrderStatus = "SERVED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ActiveOrderStatuses are the statuses the aging monitor tracks.
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusPreparing,
	OrderStatusReady,
}

// Active reports whether the status is received, preparing or ready.
func (s OrderStatus) Active() bool {
	for _, active := range ActiveOrderStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// Order is the read view of an order pushed to realtime clients.
type Order struct {
	ID                string      `json:"id"`
	TenantID          string      `json:"tenantId"`
	TableID           string      `json:"tableId,omitempty"`
	OrderNumber       string      `json:"orderNumber,omitempty"`
	Status            OrderStatus `json:"status"`
	TotalAmount       float64     `json:"totalAmount,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	EstimatedPrepTime *int        `json:"estimatedPrepTime,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt,omitempty"`
}

// Payment describes a completed payment for an order.
type Payment struct {
	ID       string    `json:"id"`
	OrderID  string    `json:"orderId"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency,omitempty"`
	Method   string    `json:"method,omitempty"`
	Status   string    `json:"status,omitempty"`
	PaidAt   time.Time `json:"paidAt"`
}

// BillRequest is raised by a customer who wants to pay and close out a table.
type BillRequest struct {
	TableID       string    `json:"tableId"`
	OrderID       string    `json:"orderId,omitempty"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	RequestedAt   time.Time `json:"requestedAt"`
}
