package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"order-realtime/internal/events"
)

type EventDispatcher interface {
	Dispatch(ctx context.Context, msg events.Message) error
}

// EventsHandler accepts order-lifecycle events pushed over HTTP by internal services.
type EventsHandler struct {
	dispatcher EventDispatcher
}

func NewEventsHandler(dispatcher EventDispatcher) *EventsHandler {
	return &EventsHandler{dispatcher: dispatcher}
}

// Ingest decodes one event and fans it out.
func (h *EventsHandler) Ingest(c *gin.Context) {
	var msg events.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err := h.dispatcher.Dispatch(c.Request.Context(), msg)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	case errors.Is(err, events.ErrUnknownEventType):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, events.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("type", msg.Type).Str("tenant_id", msg.TenantID).Str("request_id", requestIDFromContext(c)).Msg("event dispatch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dispatch event"})
	}
}
