package message

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/msgboard/msgboard/pkg/logger"
)

// Config tunes the message service.
type Config struct {
	MaxLength int
	PageSize  int
}

// Service implements the board's use cases on top of a Repository.
type Service struct {
	repo      Repository
	maxLength int
	pageSize  int
}

// NewService builds a Service. Non-positive limits fall back to defaults.
func NewService(repo Repository, cfg *Config) *Service {
	s := &Service{repo: repo, maxLength: DefaultMaxLength, pageSize: DefaultPageSize}
	if cfg != nil {
		if cfg.MaxLength > 0 {
			s.maxLength = cfg.MaxLength
		}
		if cfg.PageSize > 0 {
			s.pageSize = cfg.PageSize
		}
	}
	return s
}

// PageSize returns the archive page size in effect.
func (s *Service) PageSize() int { return s.pageSize }

// Validate checks text against the board's rules.
func (s *Service) Validate(text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(text); n > s.maxLength {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrMessageTooLong, n, s.maxLength)
	}
	return nil
}

// Post stores a new message.
func (s *Service) Post(ctx context.Context, text string) (*Message, error) {
	if err := s.Validate(text); err != nil {
		return nil, err
	}
	msg := &Message{Text: text}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	logger.FromContext(ctx).Debug("Message posted", "id", msg.ID, "length", len(text))
	return msg, nil
}

// Latest returns the newest message. It returns ErrNotFound when the board is
// empty.
func (s *Service) Latest(ctx context.Context) (*Message, error) {
	msg, err := s.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load latest message: %w", err)
	}
	return msg, nil
}

// Archive returns the requested archive page, newest messages first. The raw
// page value comes straight from the request and is sanitized here.
func (s *Service) Archive(ctx context.Context, rawPage string) (*Page, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	pages := totalPages(total, s.pageSize)
	number := resolvePage(rawPage, pages)
	page := &Page{
		Messages:   []*Message{},
		Number:     number,
		TotalPages: pages,
		Total:      total,
		PageSize:   s.pageSize,
	}
	if total == 0 {
		return page, nil
	}
	msgs, err := s.repo.List(ctx, s.pageSize, (number-1)*s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	page.Messages = msgs
	return page, nil
}
