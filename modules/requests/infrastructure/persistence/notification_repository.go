package persistence

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iota-uz/approvals/modules/requests/domain/entities/notification"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence/models"
	"github.com/iota-uz/approvals/pkg/composables"
)

type NotificationRepository struct{}

func NewNotificationRepository() notification.Repository {
	return &NotificationRepository{}
}

func (g *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO notifications (user_id, request_id, category, title, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		n.UserID, n.RequestID, string(n.Category), n.Title, n.Body, n.Read, n.CreatedAt,
	).Scan(&n.ID); err != nil {
		return errors.Wrap(err, "failed to insert notification")
	}
	return nil
}

func (g *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*notification.Notification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, `
		SELECT id, user_id, request_id, category, title, body, read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC, id DESC`,
		userID, unreadOnly,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query notifications")
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		var m models.Notification
		if err := rows.Scan(&m.ID, &m.UserID, &m.RequestID, &m.Category, &m.Title, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		out = append(out, toDomainNotification(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating notifications")
	}
	return out, nil
}
