package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

type courseRepository struct {
	storage *Storage
}

type enrollmentRepository struct {
	storage *Storage
}

type notificationRepository struct {
	storage *Storage
}

func (r *courseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	const query = `SELECT id, instructor_id, title, published, price, discount_price, currency FROM courses WHERE id=$1`
	var c model.Course
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.InstructorID, &c.Title, &c.Published, &c.Price, &c.DiscountPrice, &c.Currency)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *enrollmentRepository) Grant(ctx context.Context, userID, courseID int64) error {
	const query = `INSERT INTO enrollments (user_id, course_id, status) VALUES ($1, $2, 'active')`
	if _, err := r.storage.pool.Exec(ctx, query, userID, courseID); err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *enrollmentRepository) HasAccess(ctx context.Context, userID, courseID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id=$1 AND course_id=$2 AND status IN ('active', 'completed'))`
	var ok bool
	if err := r.storage.pool.QueryRow(ctx, query, userID, courseID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *notificationRepository) Send(ctx context.Context, userID int64, n model.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}
	const query = `INSERT INTO notifications (user_id, type, title, message, data) VALUES ($1, $2, $3, $4, $5)`
	_, err = r.storage.pool.Exec(ctx, query, userID, n.Type, n.Title, n.Message, encoded)
	return err
}
