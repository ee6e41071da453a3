package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
)

type NotificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepo(db *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	const q = `
		INSERT INTO notifications (user_id, type, title, body, payload)
		VALUES ($1, $2, $3, $4, COALESCE($5::jsonb, '{}'::jsonb))
		RETURNING id, is_read, created_at;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, q, n.UserID, n.Type, n.Title, n.Body, n.Payload).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification repo: Create: %w", err)
	}
	return nil
}

// CreateForAudience stores a copy of n for every user with role, or for everyone when
// role is "". Returns the number of rows stored.
func (r *NotificationRepo) CreateForAudience(ctx context.Context, role types.UserRole, n models.Notification) (int, error) {
	const q = `
		INSERT INTO notifications (user_id, type, title, body, payload)
		SELECT id, $2, $3, $4, COALESCE($5::jsonb, '{}'::jsonb)
		FROM users
		WHERE role <> 'ADMIN' AND ($1 = '' OR role = $1)`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, string(role), n.Type, n.Title, n.Body, n.Payload)
	if err != nil {
		return 0, fmt.Errorf("notification repo: CreateForAudience: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListByUser returns the newest notifications first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, filters models.Filters) ([]models.Notification, models.Metadata, error) {
	const q = `
		SELECT count(*) OVER(), id, user_id, type, title, body, payload, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, userID, unreadOnly, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("notification repo: ListByUser: %w", err)
	}
	defer rows.Close()

	var (
		total int
		list  = []models.Notification{}
	)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&total, &n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("notification repo: ListByUser: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("notification repo: ListByUser: %w", err)
	}

	return list, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	const q = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("notification repo: MarkRead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, userID)
	if err != nil {
		return 0, fmt.Errorf("notification repo: MarkAllRead: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`

	var count int
	if err := TxorDB(ctx, r.db).QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("notification repo: UnreadCount: %w", err)
	}
	return count, nil
}
