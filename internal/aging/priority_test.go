package aging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"order-realtime/internal/models"
)

func intPtr(v int) *int { return &v }

func TestComputePriority(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   int
		estimated *int
		want      models.Priority
	}{
		{"fresh order", 3, intPtr(15), models.PriorityNormal},
		{"exactly estimated", 15, intPtr(15), models.PriorityNormal},
		{"past estimate", 22, intPtr(15), models.PriorityHigh},
		{"past one and a half", 25, intPtr(15), models.PriorityUrgent},
		{"at one and a half boundary", 30, intPtr(20), models.PriorityHigh},
		{"missing estimate defaults", 16, nil, models.PriorityHigh},
		{"zero estimate defaults", 23, intPtr(0), models.PriorityUrgent},
		{"short estimate", 5, intPtr(4), models.PriorityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePriority(tt.elapsed, tt.estimated))
		})
	}
}

func TestComputePriorityIsMonotonic(t *testing.T) {
	rank := map[models.Priority]int{
		models.PriorityNormal: 0,
		models.PriorityHigh:   1,
		models.PriorityUrgent: 2,
	}
	for _, estimated := range []int{1, 5, 15, 20, 45} {
		prev := -1
		for elapsed := 0; elapsed <= 200; elapsed++ {
			p := ComputePriority(elapsed, intPtr(estimated))
			r, ok := rank[p]
			assert.True(t, ok, "unexpected priority %q", p)
			assert.GreaterOrEqual(t, r, prev, "estimated=%d elapsed=%d", estimated, elapsed)
			prev = r
		}
	}
}

func TestSnapshot(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	high := Snapshot(models.Order{
		ID:                "o1",
		TenantID:          "t1",
		CreatedAt:         now.Add(-22*time.Minute - 40*time.Second),
		EstimatedPrepTime: intPtr(15),
	}, now)
	assert.Equal(t, models.OrderTimer{OrderID: "o1", TenantID: "t1", ElapsedMinutes: 22, Priority: models.PriorityHigh}, high)

	urgent := Snapshot(models.Order{
		ID:                "o2",
		TenantID:          "t1",
		CreatedAt:         now.Add(-25 * time.Minute),
		EstimatedPrepTime: intPtr(15),
	}, now)
	assert.Equal(t, 25, urgent.ElapsedMinutes)
	assert.Equal(t, models.PriorityUrgent, urgent.Priority)
}

func TestElapsedMinutesClampsFuture(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0, ElapsedMinutes(now.Add(time.Minute), now))
	assert.Equal(t, 0, ElapsedMinutes(now.Add(-59*time.Second), now))
	assert.Equal(t, 1, ElapsedMinutes(now.Add(-61*time.Second), now))
}
