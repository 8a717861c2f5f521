package ws

import "order-realtime/internal/models"

// StaffRoom is the broadcast group of every operational client of a tenant.
func StaffRoom(tenantID string) string {
	return "tenant:" + tenantID + ":staff"
}

// CustomerRoom is the broadcast group of the ordering session at one table.
func CustomerRoom(tenantID, tableID string) string {
	return "tenant:" + tenantID + ":customer:" + tableID
}

// initialRooms returns the groups a freshly classified connection joins. A customer
// without a known table joins none until it subscribes.
func initialRooms(conn models.Connection) []string {
	switch conn.Role {
	case models.RoleStaff:
		return []string{StaffRoom(conn.TenantID)}
	case models.RoleCustomer:
		if conn.TableID != "" {
			return []string{CustomerRoom(conn.TenantID, conn.TableID)}
		}
	}
	return nil
}
