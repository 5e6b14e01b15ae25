package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/msgboard/msgboard/engine/infra/postgres"
	"github.com/msgboard/msgboard/engine/message"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepo_Create(t *testing.T) {
	t.Run("Should insert text and fill generated fields", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewMessageRepo(mockPool)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		mockPool.ExpectQuery("INSERT INTO msgs_msg \\(msg_text\\) VALUES \\(\\$1\\) RETURNING id, msg_time").
			WithArgs("hello").
			WillReturnRows(mockPool.NewRows([]string{"id", "msg_time"}).AddRow(int64(7), now))
		msg := &message.Message{Text: "hello"}
		err = repo.Create(context.Background(), msg)
		require.NoError(t, err)
		assert.Equal(t, int64(7), msg.ID)
		assert.Equal(t, now, msg.CreatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should wrap insert errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewMessageRepo(mockPool)
		mockPool.ExpectQuery("INSERT INTO msgs_msg").
			WithArgs("hello").
			WillReturnError(errors.New("read-only transaction"))
		err = repo.Create(context.Background(), &message.Message{Text: "hello"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert message")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should reject nil message", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewMessageRepo(mockPool)
		assert.Error(t, repo.Create(context.Background(), nil))
	})
}

func TestMessageRepo_Latest(t *testing.T) {
	t.Run("Should return newest message", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewMessageRepo(mockPool)
		now := time.Now().UTC()
		rows := mockPool.NewRows([]string{"id", "msg_text", "msg_time"}).AddRow(int64(3), "third", now)
		mockPool.ExpectQuery("SELECT id, msg_text, msg_time FROM msgs_msg ORDER BY msg_time DESC, id DESC LIMIT 1").
			WillReturnRows(rows)
		msg, err := repo.Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), msg.ID)
		assert.Equal(t, "third", msg.Text)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should map empty result to ErrNotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewMessageRepo(mockPool)
		mockPool.ExpectQuery("SELECT (.+) FROM msgs_msg").
			WillReturnError(pgx.ErrNoRows)
		_, err = repo.Latest(context.Background())
		assert.ErrorIs(t, err, message.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestMessageRepo_List(t *testing.T) {
	t.Run("Should apply limit and offset", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewMessageRepo(mockPool)
		now := time.Now().UTC()
		rows := mockPool.NewRows([]string{"id", "msg_text", "msg_time"}).
			AddRow(int64(12), "b", now).
			AddRow(int64(11), "a", now.Add(-time.Minute))
		mockPool.ExpectQuery("SELECT (.+) FROM msgs_msg ORDER BY msg_time DESC, id DESC LIMIT 10 OFFSET 20").
			WillReturnRows(rows)
		msgs, err := repo.List(context.Background(), 10, 20)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "b", msgs[0].Text)
		assert.Equal(t, int64(11), msgs[1].ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should return empty slice without querying for zero limit", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewMessageRepo(mockPool)
		msgs, err := repo.List(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Empty(t, msgs)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestMessageRepo_Count(t *testing.T) {
	t.Run("Should return row count", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := postgres.NewMessageRepo(mockPool)
		mockPool.ExpectQuery("SELECT COUNT\\(\\*\\) FROM msgs_msg").
			WillReturnRows(mockPool.NewRows([]string{"count"}).AddRow(int64(42)))
		total, err := repo.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(42), total)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
