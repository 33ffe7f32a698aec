package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

const orderColumns = `id, user_id, course_id, amount, currency, status, payment_method,
    external_payment_id, proof_image_url, admin_note, metadata, paid_at, created_at, updated_at`

type orderRepository struct {
	storage *Storage
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o        model.Order
		metadata []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.CourseID, &o.Amount, &o.Currency, &o.Status, &o.PaymentMethod,
		&o.ExternalPaymentID, &o.ProofImageURL, &o.AdminNote, &metadata, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &o.Metadata); err != nil {
			return nil, fmt.Errorf("decode order metadata: %w", err)
		}
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func statusNames(statuses []model.OrderStatus) []string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return names
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	metadata := order.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode order metadata: %w", err)
	}

	const query = `INSERT INTO orders (id, user_id, course_id, amount, currency, status, payment_method, external_payment_id, metadata)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
                   RETURNING created_at, updated_at`
	err = r.storage.pool.QueryRow(ctx, query, order.ID, order.UserID, order.CourseID, order.Amount, order.Currency,
		string(order.Status), order.PaymentMethod, order.ExternalPaymentID, encoded).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	o, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r *orderRepository) FindOpenByUserAndCourse(ctx context.Context, userID, courseID int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE user_id=$1 AND course_id=$2 AND status = ANY($3)
              ORDER BY created_at DESC LIMIT 1`
	o, err := scanOrder(r.storage.pool.QueryRow(ctx, query, userID, courseID, statusNames(model.NonTerminalOrderStatuses)))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status=$1 ORDER BY created_at LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// Transition performs a compare-and-set on status so concurrent admins cannot both settle an order.
func (r *orderRepository) Transition(ctx context.Context, id string, t model.OrderTransition) (*model.Order, error) {
	query := `UPDATE orders
              SET status=$2,
                  proof_image_url=COALESCE($3, proof_image_url),
                  admin_note=COALESCE($4, admin_note),
                  paid_at=COALESCE($5, paid_at),
                  updated_at=NOW()
              WHERE id=$1 AND status = ANY($6)
              RETURNING ` + orderColumns

	o, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id, string(t.To), t.ProofImageURL, t.AdminNote, t.PaidAt, statusNames(t.From)))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var current model.OrderStatus
	if err := r.storage.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&current); err != nil {
		return nil, notFound(err)
	}
	return nil, fmt.Errorf("%w: order %s is %s", domainErrors.ErrInvalidState, id, current)
}

func (r *orderRepository) SetExternalPaymentID(ctx context.Context, id, externalID string) error {
	const query = `UPDATE orders SET external_payment_id=$2, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, externalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
