package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	TenantID      string       `json:"tenant_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level  string `json:"level"`
	Action string `json:"action"`
	Text   string `json:"text"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// AuditEvent describes one administrative action.
type AuditEvent struct {
	Level     string
	Action    string
	Text      string
	RequestID string
	TenantID  string
	UserID    string
}

// Emit publishes ev. Publish failures are logged and otherwise ignored.
func (e *AuditEmitter) Emit(ctx context.Context, ev AuditEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	if ev.Level == "" {
		ev.Level = "info"
	}

	var userID *string
	if ev.UserID != "" {
		userID = &ev.UserID
	}

	log.Info().
		Str("action", ev.Action).
		Str("tenant_id", ev.TenantID).
		Str("request_id", ev.RequestID).
		Str("user_id", ev.UserID).
		Msg(ev.Text)

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     ev.RequestID,
		TenantID:      ev.TenantID,
		UserID:        userID,
		Payload: AuditPayload{
			Level:  ev.Level,
			Action: ev.Action,
			Text:   ev.Text,
		},
	}

	headers := map[string]string{}
	if ev.RequestID != "" {
		headers["x-request-id"] = ev.RequestID
	}
	if err := e.publisher.Publish(ctx, e.routingKey, envelope, headers); err != nil {
		log.Warn().Err(err).Str("action", ev.Action).Msg("audit publish failed")
	}
}
