package engine

import (
	"errors"
	"fmt"
)

// Code is the stable numeric identifier of an engine failure. Values are
// part of the external interface and never renumbered.
type Code uint32

const (
	CodeUserNotFound        Code = 1
	CodeInvalidPercentage   Code = 2
	CodeInvalidThreshold    Code = 3
	CodeNoPrice             Code = 4
	CodeInsufficientBalance Code = 5 // reserved, never raised
	CodeTooEarlyToConvert   Code = 6 // reserved, never raised
	CodeConversionFailed    Code = 7 // reserved, never raised
	CodeInvalidCurrency     Code = 8
	CodeUnauthorized        Code = 9
	CodeInvalidAmount       Code = 10
	CodeOverflow            Code = 11
)

var codeNames = map[Code]string{
	CodeUserNotFound:        "UserNotFound",
	CodeInvalidPercentage:   "InvalidPercentage",
	CodeInvalidThreshold:    "InvalidThreshold",
	CodeNoPrice:             "NoPrice",
	CodeInsufficientBalance: "InsufficientBalance",
	CodeTooEarlyToConvert:   "TooEarlyToConvert",
	CodeConversionFailed:    "ConversionFailed",
	CodeInvalidCurrency:     "InvalidCurrency",
	CodeUnauthorized:        "Unauthorized",
	CodeInvalidAmount:       "InvalidAmount",
	CodeOverflow:            "Overflow",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint32(c))
}

// Error is a named engine failure.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string { return "hedge engine: " + e.msg }

var (
	ErrUserNotFound        = &Error{CodeUserNotFound, "user not configured"}
	ErrInvalidPercentage   = &Error{CodeInvalidPercentage, "target percentage must be between 0 and 50"}
	ErrInvalidThreshold    = &Error{CodeInvalidThreshold, "threshold must be between 50 and 1000 basis points"}
	ErrNoPrice             = &Error{CodeNoPrice, "oracle has no price"}
	ErrInsufficientBalance = &Error{CodeInsufficientBalance, "insufficient balance"}
	ErrTooEarlyToConvert   = &Error{CodeTooEarlyToConvert, "too early to convert"}
	ErrConversionFailed    = &Error{CodeConversionFailed, "conversion failed"}
	ErrInvalidCurrency     = &Error{CodeInvalidCurrency, "currency not supported"}
	ErrUnauthorized        = &Error{CodeUnauthorized, "caller does not own the record"}
	ErrInvalidAmount       = &Error{CodeInvalidAmount, "amount must not be negative"}
	ErrOverflow            = &Error{CodeOverflow, "arithmetic overflow"}
)

// CodeOf returns the engine code carried by err, or 0 when err is nil or
// not an engine failure.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// outcome names err for metrics labels.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if c := CodeOf(err); c != 0 {
		return c.String()
	}
	return "internal"
}
