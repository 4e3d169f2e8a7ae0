package domain

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotHost          = errors.New("only the host can do that")
	ErrInvalidReference = errors.New("invalid video url")
	ErrNotAMember       = errors.New("not a member of this room")

	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrEmptyMessage    = errors.New("empty message")
)
