package store

import "errors"

// Store violations are returned so callers can log them, never panicked:
// they legitimately occur under benign races (a message arriving for a
// conversation that is not locally listed yet, a confirmation timer firing
// for a message that is gone).
var (
	ErrDuplicateID         = errors.New("duplicate id")
	ErrUnknownConversation = errors.New("unknown conversation")
	ErrUnknownMessage      = errors.New("unknown message")
)
