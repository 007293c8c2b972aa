package repository

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUser     = errors.New("username or email already exists")
	ErrBlogNotFound      = errors.New("blog not found")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrReplyNotFound     = errors.New("reply not found")
	ErrTagNotFound       = errors.New("tag not found")
	ErrDuplicateTag      = errors.New("tag already exists")
	ErrCodeNotFound      = errors.New("verification code invalid or expired")
	ErrTokenMismatch     = errors.New("refresh token does not match stored token")
	ErrLikeNotFound      = errors.New("like not found")
	ErrFollowingNotFound = errors.New("follow edge not found")
)

// isUniqueViolation detects unique constraint errors for both SQLite and
// PostgreSQL without importing driver-specific error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
