package message

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu     sync.Mutex
	msgs   []*Message
	nextID int64
	err    error
}

func (r *memoryRepo) Create(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.nextID++
	msg.ID = r.nextID
	msg.CreatedAt = time.Unix(r.nextID, 0).UTC()
	cp := *msg
	r.msgs = append(r.msgs, &cp)
	return nil
}

func (r *memoryRepo) sorted() []*Message {
	out := append([]*Message(nil), r.msgs...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *memoryRepo) Latest(_ context.Context) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if len(r.msgs) == 0 {
		return nil, ErrNotFound
	}
	return r.sorted()[0], nil
}

func (r *memoryRepo) List(_ context.Context, limit, offset int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	if offset >= len(all) {
		return []*Message{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *memoryRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.msgs)), nil
}

func seed(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := svc.Post(context.Background(), fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}
}

func TestService_Post(t *testing.T) {
	t.Run("Should store a valid message", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, nil)
		msg, err := svc.Post(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, int64(1), msg.ID)
		assert.Equal(t, "hello", msg.Text)
		assert.False(t, msg.CreatedAt.IsZero())
	})

	t.Run("Should reject empty text", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, nil)
		_, err := svc.Post(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("Should reject text above the limit counted in runes", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, &Config{MaxLength: 3})
		_, err := svc.Post(context.Background(), "héé")
		require.NoError(t, err)
		_, err = svc.Post(context.Background(), strings.Repeat("é", 4))
		assert.ErrorIs(t, err, ErrMessageTooLong)
	})

	t.Run("Should wrap repository failures", func(t *testing.T) {
		boom := errors.New("boom")
		svc := NewService(&memoryRepo{err: boom}, nil)
		_, err := svc.Post(context.Background(), "hello")
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_Latest(t *testing.T) {
	t.Run("Should return not found on an empty board", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, nil)
		_, err := svc.Latest(context.Background())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should return the newest message", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, nil)
		seed(t, svc, 3)
		msg, err := svc.Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "message 3", msg.Text)
	})
}

func TestService_Archive(t *testing.T) {
	t.Run("Should return one empty page for an empty board", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, nil)
		page, err := svc.Archive(context.Background(), "3")
		require.NoError(t, err)
		assert.Equal(t, 1, page.Number)
		assert.Equal(t, 1, page.TotalPages)
		assert.Empty(t, page.Messages)
	})

	t.Run("Should paginate newest first", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, nil)
		seed(t, svc, 25)
		page, err := svc.Archive(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Messages, 10)
		assert.Equal(t, "message 25", page.Messages[0].Text)

		last, err := svc.Archive(context.Background(), "99")
		require.NoError(t, err)
		assert.Equal(t, 3, last.Number)
		require.Len(t, last.Messages, 5)
		assert.Equal(t, "message 1", last.Messages[4].Text)
	})

	t.Run("Should honor a custom page size", func(t *testing.T) {
		svc := NewService(&memoryRepo{}, &Config{PageSize: 2})
		seed(t, svc, 3)
		page, err := svc.Archive(context.Background(), "2")
		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Messages, 1)
	})
}
