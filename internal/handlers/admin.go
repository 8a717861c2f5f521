package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"order-realtime/internal/middleware"
	"order-realtime/internal/telemetry"
	"order-realtime/internal/ws"
)

// TenantGateway is the slice of the gateway the admin endpoints need.
type TenantGateway interface {
	ConnectedClientsByTenant(tenantID string) int
	ClientsInRoom(room string) int
	DisconnectTenant(tenantID string) int
}

// AdminHandler exposes tenant connection introspection and eviction.
type AdminHandler struct {
	gateway TenantGateway
	audit   *telemetry.AuditEmitter
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(gateway TenantGateway, audit *telemetry.AuditEmitter) *AdminHandler {
	return &AdminHandler{gateway: gateway, audit: audit}
}

// authorizedTenant returns the path tenant when it matches the caller's token.
func authorizedTenant(c *gin.Context) (string, bool) {
	tenantID := c.Param("tenant_id")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
		return "", false
	}
	if c.GetString(middleware.TenantIDKey) != tenantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "tenant mismatch"})
		return "", false
	}
	return tenantID, true
}

// Connections reports live connection counts for a tenant.
func (h *AdminHandler) Connections(c *gin.Context) {
	tenantID, ok := authorizedTenant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenantId":    tenantID,
		"connections": h.gateway.ConnectedClientsByTenant(tenantID),
		"staff":       h.gateway.ClientsInRoom(ws.StaffRoom(tenantID)),
	})
}

// Disconnect notifies and closes every staff connection of a tenant.
func (h *AdminHandler) Disconnect(c *gin.Context) {
	tenantID, ok := authorizedTenant(c)
	if !ok {
		return
	}

	closed := h.gateway.DisconnectTenant(tenantID)
	h.audit.Emit(c.Request.Context(), telemetry.AuditEvent{
		Level:     "warn",
		Action:    "tenant.disconnect",
		Text:      fmt.Sprintf("disconnected %d staff connections", closed),
		RequestID: requestIDFromContext(c),
		TenantID:  tenantID,
		UserID:    userIDFromContext(c),
	})

	c.JSON(http.StatusOK, gin.H{"tenantId": tenantID, "disconnected": closed})
}
