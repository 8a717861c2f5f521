package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-realtime/internal/models"
)

func testClient(id, tenantID string, role models.Role, tableID string) *Client {
	info := ConnInfo{Connection: models.Connection{
		ConnID:      id,
		TenantID:    tenantID,
		Role:        role,
		TableID:     tableID,
		ConnectedAt: time.Now(),
	}}
	return newClient(nil, info, 8, nil)
}

func TestHubJoinAndUnregister(t *testing.T) {
	hub := NewHub()
	c := testClient("c1", "t1", models.RoleStaff, "")

	hub.Register(c)
	added, err := hub.Join(c, StaffRoom("t1"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, hub.ClientsInRoom(StaffRoom("t1")))

	removed, ok := hub.Unregister("c1")
	require.True(t, ok)
	assert.Same(t, c, removed)
	assert.Equal(t, 0, hub.ClientsInRoom(StaffRoom("t1")))
	assert.Empty(t, hub.rooms, "room should vanish with its last member")
	assert.Equal(t, 0, hub.Len())
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := testClient("c1", "t1", models.RoleStaff, "")
	hub.Register(c)

	added, err := hub.Join(c, StaffRoom("t1"))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = hub.Join(c, StaffRoom("t1"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, hub.ClientsInRoom(StaffRoom("t1")))
}

func TestHubJoinRequiresRegistration(t *testing.T) {
	hub := NewHub()
	c := testClient("c1", "t1", models.RoleStaff, "")

	_, err := hub.Join(c, StaffRoom("t1"))
	require.ErrorIs(t, err, ErrUnknownConnection)
	assert.Equal(t, 0, hub.ClientsInRoom(StaffRoom("t1")))
}

func TestHubUnregisterUnknown(t *testing.T) {
	hub := NewHub()
	_, ok := hub.Unregister("missing")
	assert.False(t, ok)
}

func TestHubCountInTenantIgnoresRooms(t *testing.T) {
	hub := NewHub()
	staff := testClient("s1", "t1", models.RoleStaff, "")
	tableless := testClient("c1", "t1", models.RoleCustomer, "")
	other := testClient("c2", "t2", models.RoleCustomer, "3")
	for _, c := range []*Client{staff, tableless, other} {
		hub.Register(c)
	}
	_, _ = hub.Join(staff, StaffRoom("t1"))

	assert.Equal(t, 2, hub.CountInTenant("t1"))
	assert.Equal(t, 1, hub.CountInTenant("t2"))
	assert.Equal(t, 0, hub.CountInTenant("t3"))
}

func TestHubLeaveAndRoomsOf(t *testing.T) {
	hub := NewHub()
	c := testClient("c1", "t1", models.RoleCustomer, "5")
	hub.Register(c)
	_, _ = hub.Join(c, CustomerRoom("t1", "5"))
	_, _ = hub.Join(c, StaffRoom("t1"))

	assert.Equal(t, []string{"tenant:t1:customer:5", "tenant:t1:staff"}, hub.RoomsOf("c1"))

	hub.Leave(c, StaffRoom("t1"))
	assert.Equal(t, []string{"tenant:t1:customer:5"}, hub.RoomsOf("c1"))
	assert.Nil(t, hub.RoomsOf("missing"))
}

func TestHubBroadcastCountsDrops(t *testing.T) {
	hub := NewHub()
	live := testClient("c1", "t1", models.RoleStaff, "")
	gone := testClient("c2", "t1", models.RoleStaff, "")
	hub.Register(live)
	hub.Register(gone)
	_, _ = hub.Join(live, StaffRoom("t1"))
	_, _ = hub.Join(gone, StaffRoom("t1"))
	gone.close()

	sent, failed := hub.Broadcast(StaffRoom("t1"), []byte(`{}`))
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, failed)
}

func TestClientEnqueueDropsWhenFull(t *testing.T) {
	c := newClient(nil, ConnInfo{}, 1, nil)
	assert.True(t, c.enqueue([]byte("a")))
	assert.False(t, c.enqueue([]byte("b")))
}
