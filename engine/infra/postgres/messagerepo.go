package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/msgboard/msgboard/engine/message"
)

const messagesTable = "msgs_msg"

var messageColumns = []string{"id", "msg_text", "msg_time"}

// DB is the minimal database interface MessageRepo depends on (pgxpool or pgxmock).
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// MessageRepo implements message.Repository backed by a pgx-compatible pool.
type MessageRepo struct {
	db DB
}

var _ message.Repository = (*MessageRepo)(nil)

func NewMessageRepo(db DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func selectMessagesBuilder() squirrel.SelectBuilder {
	return squirrel.
		Select(messageColumns...).
		From(messagesTable).
		OrderBy("msg_time DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)
}

// Create inserts msg and fills in the generated id and timestamp.
func (r *MessageRepo) Create(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return fmt.Errorf("message is required")
	}
	query, args, err := squirrel.
		Insert(messagesTable).
		Columns("msg_text").
		Values(msg.Text).
		Suffix("RETURNING id, msg_time").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build message insert: %w", err)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Latest returns the newest message, or message.ErrNotFound on an empty board.
func (r *MessageRepo) Latest(ctx context.Context) (*message.Message, error) {
	query, args, err := selectMessagesBuilder().Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest message select: %w", err)
	}
	var msg message.Message
	if err := pgxscan.Get(ctx, r.db, &msg, query, args...); err != nil {
		if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
			return nil, message.ErrNotFound
		}
		return nil, fmt.Errorf("select latest message: %w", err)
	}
	return &msg, nil
}

// List returns up to limit messages newest first, skipping offset rows.
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
		return nil, fmt.Errorf("build message list select: %w", err)
	}
	msgs := make([]*message.Message, 0, limit)
	if err := pgxscan.Select(ctx, r.db, &msgs, query, args...); err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	return msgs, nil
}

// Count returns the number of stored messages.
func (r *MessageRepo) Count(ctx context.Context) (int64, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From(messagesTable).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build message count: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return total, nil
}
