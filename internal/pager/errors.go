package pager

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes pagination errors.
type ErrorCode string

const (
	// ErrCodeFetchFailed indicates the source failed to produce a page.
	// The cursor is back to Idle and a later scroll or Retry re-attempts
	// from the same token.
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"

	// ErrCodeMissingCursor indicates a page reported more data but carried
	// no continuation token. Pagination stops.
	ErrCodeMissingCursor ErrorCode = "MISSING_CURSOR"
)

// Error is a pagination failure surfaced to the render layer via View.Err.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the view.
	Session string

	// Seq is the request sequence number the error belongs to.
	Seq int64

	// Cursor is the token the failed request was issued with.
	Cursor Token

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s (seq=%d)", e.Code, e.Message, e.Seq)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is a fetch failure.
func IsFetchError(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeFetchFailed
	}
	return false
}

// IsMissingCursor reports whether err is a missing-continuation failure.
func IsMissingCursor(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeMissingCursor
	}
	return false
}

func newFetchError(session string, seq int64, cursor Token, cause error) *Error {
	return &Error{
		Code:    ErrCodeFetchFailed,
		Message: "page fetch failed",
		Session: session,
		Seq:     seq,
		Cursor:  cursor,
		Err:     cause,
	}
}

func newMissingCursorError(session string, seq int64, cursor Token) *Error {
	return &Error{
		Code:    ErrCodeMissingCursor,
		Message: "page reported more records without a continuation cursor",
		Session: session,
		Seq:     seq,
		Cursor:  cursor,
	}
}
