// Package status carries the outcome of a sync run: a value when ready,
// a human-readable message when not.
package status

import (
	"errors"
	"fmt"
)

// Status is the discriminant of a Result.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Result is either Ready with a value or Error with a message, never both.
type Result[T any] struct {
	Status  Status `json:"status"`
	Value   T      `json:"result,omitempty"`
	Message string `json:"error,omitempty"`
}

// Ready wraps a successful value.
func Ready[T any](v T) Result[T] {
	return Result[T]{Status: StatusOK, Value: v}
}

// Error builds a failed result carrying msg.
func Error[T any](msg string) Result[T] {
	return Result[T]{Status: StatusError, Message: msg}
}

// Errorf is Error with formatting.
func Errorf[T any](format string, args ...any) Result[T] {
	return Error[T](fmt.Sprintf(format, args...))
}

// FromError turns err into a failed result, or v into a ready one when err is nil.
func FromError[T any](v T, err error) Result[T] {
	if err != nil {
		return Error[T](err.Error())
	}
	return Ready(v)
}

func (r Result[T]) IsReady() bool { return r.Status == StatusOK }

func (r Result[T]) IsError() bool { return r.Status == StatusError }

// Unwrap returns the value, or an error holding the message for a failed result.
func (r Result[T]) Unwrap() (T, error) {
	if r.IsError() {
		var zero T
		return zero, errors.New(r.Message)
	}
	return r.Value, nil
}
