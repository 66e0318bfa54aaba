// Package apperr carries the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// InputError 表示调用方提供的参数缺失或非法，对应 HTTP 400。
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// UpstreamError 表示外部依赖（表格、文档库）调用失败，对应 HTTP 500。
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Required builds the "<field> is required" input error.
func Required(field string) error {
	return &InputError{Field: field}
}

// Input builds an input error with a custom message.
func Input(field, message string) error {
	return &InputError{Field: field, Message: message}
}

// Upstream wraps err as a failure of the named upstream operation.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

// IsInput reports whether err is (or wraps) an InputError.
func IsInput(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}
