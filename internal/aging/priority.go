package aging

import (
	"time"

	"order-realtime/internal/models"
)

// DefaultEstimatedPrepMinutes applies when an order carries no usable estimate.
const DefaultEstimatedPrepMinutes = 15

// ComputePriority derives the aging tier for an order that has been open for
// elapsedMinutes. A nil or non-positive estimate falls back to the default.
func ComputePriority(elapsedMinutes int, estimatedPrepMinutes *int) models.Priority {
	estimated := DefaultEstimatedPrepMinutes
	if estimatedPrepMinutes != nil && *estimatedPrepMinutes > 0 {
		estimated = *estimatedPrepMinutes
	}
	elapsed := float64(elapsedMinutes)
	switch {
	case elapsed > float64(estimated)*1.5:
		return models.PriorityUrgent
	case elapsed > float64(estimated):
		return models.PriorityHigh
	default:
		return models.PriorityNormal
	}
}

// ElapsedMinutes is the whole number of minutes between createdAt and now.
// Orders stamped in the future count as zero.
func ElapsedMinutes(createdAt, now time.Time) int {
	d := now.Sub(createdAt)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// Snapshot computes the timer view of order at now.
func Snapshot(order models.Order, now time.Time) models.OrderTimer {
	elapsed := ElapsedMinutes(order.CreatedAt, now)
	return models.OrderTimer{
		OrderID:        order.ID,
		TenantID:       order.TenantID,
		ElapsedMinutes: elapsed,
		Priority:       ComputePriority(elapsed, order.EstimatedPrepTime),
	}
}
