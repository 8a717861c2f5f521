package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"order-realtime/internal/models"
)

// OrderRepository provides the order data the aging monitor reads.
type OrderRepository interface {
	ActiveOrders(ctx context.Context) ([]models.Order, error)
}

// OrderRepo is a sqlx implementation of OrderRepository over the orders read table.
type OrderRepo struct {
	db *sqlx.DB
}

// NewOrderRepo constructs an OrderRepo.
func NewOrderRepo(db *sqlx.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

type orderRow struct {
	ID                string          `db:"id"`
	TenantID          string          `db:"tenant_id"`
	TableID           sql.NullString  `db:"table_id"`
	OrderNumber       sql.NullString  `db:"order_number"`
	Status            string          `db:"status"`
	TotalAmount       sql.NullFloat64 `db:"total_amount"`
	Notes             sql.NullString  `db:"notes"`
	EstimatedPrepTime sql.NullInt64   `db:"estimated_prep_time"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         sql.NullTime    `db:"updated_at"`
}

func (r orderRow) toModel() models.Order {
	order := models.Order{
		ID:          r.ID,
		TenantID:    r.TenantID,
		TableID:     r.TableID.String,
		OrderNumber: r.OrderNumber.String,
		Status:      models.OrderStatus(r.Status),
		TotalAmount: r.TotalAmount.Float64,
		Notes:       r.Notes.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt.Time,
	}
	if r.EstimatedPrepTime.Valid {
		minutes := int(r.EstimatedPrepTime.Int64)
		order.EstimatedPrepTime = &minutes
	}
	return order
}

const activeOrdersQuery = `SELECT id, tenant_id, table_id, order_number, status, total_amount, notes,
       estimated_prep_time, created_at, updated_at
FROM orders
WHERE status = ANY($1)
ORDER BY created_at`

// ActiveOrders lists orders in the received, preparing or ready state across all tenants.
func (r *OrderRepo) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	statuses := make(pq.StringArray, 0, len(models.ActiveOrderStatuses))
	for _, s := range models.ActiveOrderStatuses {
		statuses = append(statuses, string(s))
	}

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, activeOrdersQuery, statuses); err != nil {
		return nil, fmt.Errorf("select active orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toModel())
	}
	return orders, nil
}
