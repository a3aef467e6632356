// Package apperr defines the error conditions the service distinguishes at its
// boundaries. Callers match them with errors.Is.
package apperr

import "errors"

var (
	ErrTokenMissing = errors.New("token is missing")
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")

	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUserNotFound  = errors.New("user not found")
	ErrBoardNotFound = errors.New("board not found")

	ErrAlreadyShared = errors.New("board is already shared with this user")
	ErrForbidden     = errors.New("no access to this board")

	ErrNotificationFailed = errors.New("invitation email failed")
)
