package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mingle/internal/app/db"
)

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool. The pool owner remains responsible
// for closing it.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append inserts the message. A unique violation on the primary key means the
// exact message was already persisted, which Append treats as success so a
// retried call never duplicates a record.
func (s *PostgresStore) Append(ctx context.Context, msg Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, sender_id, recipient_id, text, attachment_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.SenderID, msg.RecipientID, msg.Text, msg.AttachmentRef, msg.CreatedAt,
	)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("append message %s: %w", msg.ID, err)
	}

	return nil
}

// ListBetween returns the conversation between the two identities in both
// directions, ordered oldest first.
func (s *PostgresStore) ListBetween(ctx context.Context, identityA, identityB string, limit int) ([]Message, error) {
	query := `SELECT id, sender_id, recipient_id, text, attachment_ref, created_at
		 FROM messages
		 WHERE (sender_id = $1 AND recipient_id = $2)
		    OR (sender_id = $2 AND recipient_id = $1)
		 ORDER BY created_at ASC, id ASC`

	args := []any{identityA, identityB}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversation %s/%s: %w", identityA, identityB, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Text, &msg.AttachmentRef, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}
