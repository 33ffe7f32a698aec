package repository

import (
	"context"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// CourseRepository reads the catalog.
type CourseRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Course, error)
}

// EnrollmentRepository grants and inspects course access.
type EnrollmentRepository interface {
	// Grant returns ErrAlreadyExists when the learner already holds the course.
	Grant(ctx context.Context, userID, courseID int64) error
	HasAccess(ctx context.Context, userID, courseID int64) (bool, error)
}

// NotificationRepository delivers in-app notifications.
type NotificationRepository interface {
	Send(ctx context.Context, userID int64, n model.Notification) error
}
