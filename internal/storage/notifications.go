package storage

import (
	"context"
	"fmt"
	"time"
)

// Notification is a persisted user-facing message produced by the
// event worker. EventID keeps redelivered events idempotent.
type Notification struct {
	ID        int64
	UserID    int64
	EventID   string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO notifications (user_id, event_id, title, body, read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		n.UserID, n.EventID, n.Title, n.Body, now)
	if err != nil {
		return Notification{}, fmt.Errorf("create notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Notification{}, fmt.Errorf("create notification id: %w", err)
	}
	n.ID = id
	n.Read = false
	n.CreatedAt = now
	return n, nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, title, body, read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.EventID, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flips the read flag. The user id scopes the
// update so nobody can touch another user's notifications.
func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return requireRow(res, id)
}
