package models

import "time"

// Role is the classified kind of a realtime connection.
type Role string

const (
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleCustomer
}

// Connection is the immutable snapshot produced when a client is classified at connect time.
type Connection struct {
	ConnID      string    `json:"connectionId"`
	TenantID    string    `json:"tenantId"`
	Role        Role      `json:"role"`
	UserID      string    `json:"userId,omitempty"`
	TableID     string    `json:"tableId,omitempty"`
	ConnectedAt time.Time `json:"connectedAt"`
}
