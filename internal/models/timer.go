package models

// Priority is the aging tier of an active order.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// OrderTimer is the per-tick aging snapshot of one active order. It is never persisted.
type OrderTimer struct {
	OrderID        string   `json:"orderId"`
	TenantID       string   `json:"tenantId"`
	ElapsedMinutes int      `json:"elapsedMinutes"`
	Priority       Priority `json:"priority"`
}
