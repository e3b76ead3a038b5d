package service

import "errors"

// Domain errors; handlers map these to HTTP status codes.
var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrChatNotFound       = errors.New("chat not found")
	ErrTokenInvalid       = errors.New("token invalid or expired")
)
