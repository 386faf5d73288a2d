package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
)

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a Postgres-backed notification center.
func NewNotificationRepository(pool *pgxpool.Pool) repository.NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	if n == nil || n.Tag == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO notifications (tag, title, body, icon, badge, data, require_interaction, vibrate, shown_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
	ON CONFLICT (tag) DO UPDATE
	SET title = EXCLUDED.title,
		body = EXCLUDED.body,
		icon = EXCLUDED.icon,
		badge = EXCLUDED.badge,
		data = EXCLUDED.data,
		require_interaction = EXCLUDED.require_interaction,
		vibrate = EXCLUDED.vibrate,
		shown_at = EXCLUDED.shown_at
	RETURNING shown_at
	`

	return r.pool.QueryRow(ctx, query,
		n.Tag,
		n.Title,
		n.Body,
		n.Icon,
		n.Badge,
		marshalMap(n.Data),
		n.RequireInteraction,
		marshalInts(n.Vibrate),
		nullTime(n.ShownAt),
	).Scan(&n.ShownAt)
}

func (r *notificationRepository) Get(ctx context.Context, tag string) (*domain.Notification, error) {
	const query = `
	SELECT tag, title, body, icon, badge, data, require_interaction, vibrate, shown_at
	FROM notifications
	WHERE tag = $1
	`
	return scanNotification(r.pool.QueryRow(ctx, query, tag))
}

func (r *notificationRepository) List(ctx context.Context, limit int) ([]domain.Notification, error) {
	const query = `
	SELECT tag, title, body, icon, badge, data, require_interaction, vibrate, shown_at
	FROM notifications
	ORDER BY shown_at DESC
	LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) Delete(ctx context.Context, tag string) error {
	const query = `DELETE FROM notifications WHERE tag = $1`
	cmd, err := r.pool.Exec(ctx, query, tag)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func scanNotification(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Notification, error) {
	var (
		n       domain.Notification
		data    []byte
		vibrate []byte
	)
	if err := row.Scan(
		&n.Tag,
		&n.Title,
		&n.Body,
		&n.Icon,
		&n.Badge,
		&data,
		&n.RequireInteraction,
		&vibrate,
		&n.ShownAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "decode notification data", err)
		}
	}
	if len(vibrate) > 0 {
		if err := json.Unmarshal(vibrate, &n.Vibrate); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "decode notification vibrate", err)
		}
	}
	return &n, nil
}
