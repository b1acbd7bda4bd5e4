package notification

import (
	"context"
	"time"
)

type Category string

const (
	CategoryValidationRequired Category = "validation_required"
	CategoryApproved           Category = "approved"
	CategoryRejected           Category = "rejected"
	CategoryDirectApproved     Category = "direct_approved"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RequestID *int64    `json:"request_id,omitempty"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, error)
}
