package model

import "errors"

// Lifecycle failures. They reflect authoritative state and are never retried.
var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrForbidden         = errors.New("access denied")
	ErrExpired           = errors.New("document has expired")
	ErrLimitReached      = errors.New("document reached its view limit")
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidParams      = errors.New("invalid params")
)
