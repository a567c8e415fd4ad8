package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/tx"
)

type Repository struct {
	DB *sql.DB
	TX tx.Transactor
}

func New(db *sql.DB) *Repository {
	return &Repository{
		DB: db,
		TX: &tx.Manager{DB: db, Isolation: sql.LevelReadCommitted},
	}
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) getter(tx *sql.Tx) queryable {
	if tx != nil {
		return tx
	}
	return r.DB
}

const messageColumns = `id, sender_id, receiver_id, body, is_read, created_at`

// pairKey is symmetric so both directions of a pair take the same advisory lock.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x1f" + b
}

func (r *Repository) InsertMessage(
	ctx context.Context,
	msg *domain.Message,
) (bool, error) {

	var first bool

	err := r.TX.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		q := r.getter(tx)

		// Serializes concurrent first messages of the same pair.
		if _, err := q.ExecContext(ctx, `
			SELECT pg_advisory_xact_lock(hashtext($1))
		`, pairKey(msg.SenderID, msg.ReceiverID)); err != nil {
			return fmt.Errorf("failed to lock pair: %w", err)
		}

		var exists bool
		if err := q.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM direct_messages
				WHERE (sender_id = $1 AND receiver_id = $2)
				   OR (sender_id = $2 AND receiver_id = $1)
			)
		`, msg.SenderID, msg.ReceiverID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check pair history: %w", err)
		}

		if _, err := q.ExecContext(ctx, `
			INSERT INTO direct_messages (`+messageColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			msg.ID,
			msg.SenderID,
			msg.ReceiverID,
			msg.Body,
			msg.IsRead,
			msg.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		first = !exists
		return nil
	})

	return first, err
}

func (r *Repository) ListBetween(
	ctx context.Context,
	a, b string,
) ([]*domain.Message, error) {

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM direct_messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *Repository) ListInvolving(
	ctx context.Context,
	userID string,
) ([]*domain.Message, error) {

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM direct_messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *Repository) MarkOneRead(
	ctx context.Context,
	messageID, readerID string,
) (*domain.Message, error) {

	row := r.DB.QueryRowContext(ctx, `
		UPDATE direct_messages
		SET is_read = TRUE
		WHERE id = $1
		  AND receiver_id = $2
		  AND is_read = FALSE
		RETURNING `+messageColumns+`
	`, messageID, readerID)

	var msg domain.Message
	if err := scanMessage(row, &msg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (r *Repository) MarkAllRead(
	ctx context.Context,
	senderID, receiverID string,
) (int64, error) {

	res, err := r.DB.ExecContext(ctx, `
		UPDATE direct_messages
		SET is_read = TRUE
		WHERE sender_id = $1
		  AND receiver_id = $2
		  AND is_read = FALSE
	`, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(s scanner, msg *domain.Message) error {
	if err := s.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Body,
		&msg.IsRead,
		&msg.CreatedAt,
	); err != nil {
		return err
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	return nil
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := scanMessage(rows, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
