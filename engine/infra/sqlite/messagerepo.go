package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/msgboard/msgboard/engine/message"
)

const messagesTable = "msgs_msg"

var messageColumns = []string{"id", "msg_text", "msg_time"}

// MessageRepo implements message.Repository on top of a SQLite *sql.DB.
type MessageRepo struct{ db *sql.DB }

var _ message.Repository = (*MessageRepo)(nil)

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

func selectMessagesBuilder() squirrel.SelectBuilder {
	return squirrel.
		Select(messageColumns...).
		From(messagesTable).
		OrderBy("msg_time DESC", "id DESC").
		PlaceholderFormat(squirrel.Question)
}

// Create inserts msg. The timestamp is assigned here in UTC so rows sort
// lexically by msg_time.
func (r *MessageRepo) Create(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return fmt.Errorf("sqlite: message is required")
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query, args, err := squirrel.
		Insert(messagesTable).
		Columns("msg_text", "msg_time").
		Values(msg.Text, createdAt.UTC()).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build message insert: %w", err)
	}
	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return fmt.Errorf("sqlite: insert message: %w", err)
	}
	msg.ID = id
	msg.CreatedAt = createdAt.UTC()
	return nil
}

func (r *MessageRepo) Latest(ctx context.Context) (*message.Message, error) {
	query, args, err := selectMessagesBuilder().Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build latest message select: %w", err)
	}
	var msg message.Message
	if err := sqlscan.Get(ctx, r.db, &msg, query, args...); err != nil {
		if sqlscan.NotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, message.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: select latest message: %w", err)
	}
	return &msg, nil
}

func (r *MessageRepo) List(ctx context.Context, limit, offset int) ([]*message.Message, error) {
	if limit <= 0 {
		return []*message.Message{}, nil
	}
	builder := selectMessagesBuilder().Limit(uint64(limit))
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build message list select: %w", err)
	}
	msgs := make([]*message.Message, 0, limit)
	if err := sqlscan.Select(ctx, r.db, &msgs, query, args...); err != nil {
		return nil, fmt.Errorf("sqlite: list messages: %w", err)
	}
	return msgs, nil
}

func (r *MessageRepo) Count(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM msgs_msg`
	var total int64
	if err := r.db.QueryRowContext(ctx, q).Scan(&total); err != nil {
		return 0, fmt.Errorf("sqlite: count messages: %w", err)
	}
	return total, nil
}
