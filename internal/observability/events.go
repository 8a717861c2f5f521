package observability

// EventEnvelope is the shape of lifecycle telemetry published to the events exchange.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// WSEventPayload describes one websocket lifecycle transition.
type WSEventPayload struct {
	WS       WSEventDetails `json:"ws"`
	Identity WSIdentity     `json:"identity"`
}

type WSEventDetails struct {
	Namespace  string `json:"namespace"`
	Event      string `json:"event"`
	ConnID     string `json:"conn_id"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason"`
}

type WSIdentity struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	UserID   string `json:"user_id,omitempty"`
	TableID  string `json:"table_id,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	IP       string `json:"ip,omitempty"`
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
