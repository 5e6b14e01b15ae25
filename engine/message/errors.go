package message

import "errors"

var (
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrMessageTooLong = errors.New("message text is too long")
	ErrNotFound       = errors.New("message not found")
)
