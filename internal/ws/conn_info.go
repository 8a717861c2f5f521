package ws

import "order-realtime/internal/models"

// ConnInfo is the classified connection plus transport metadata captured at upgrade time.
type ConnInfo struct {
	models.Connection
	DeviceID  string
	IP        string
	RequestID string
	TraceID   string
}
