// Package apperrors carries application errors with a stable machine-readable
// code alongside the transport-level status they map to.
package apperrors

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is reported in ErrorInfo details.
const Domain = "collab.storyloom"

// Error is an application error with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// GetCode returns the application code of err, or CodeUnknown.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GRPCCode returns the transport status code for err.
func GRPCCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code.GRPCCode()
	}
	return codes.Internal
}

// ToStatus converts err to a status carrying an ErrorInfo detail whose Reason
// is the application code. Errors that are not *Error become Internal with a
// generic message so storage details never leak to callers.
func ToStatus(err error) *status.Status {
	var e *Error
	if !errors.As(err, &e) {
		return status.New(codes.Internal, "an unexpected error occurred")
	}

	msg := e.Message
	if e.Code.GRPCCode() == codes.Internal {
		msg = "an unexpected error occurred"
	}
	st := status.New(e.Code.GRPCCode(), msg)
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(e.Code),
		Domain:   Domain,
		Metadata: e.Metadata,
	})
	if derr != nil {
		return st
	}
	return detailed
}

// Reason extracts the application code and metadata from a status built by ToStatus.
func Reason(st *status.Status) (Code, map[string]string) {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return Code(info.GetReason()), info.GetMetadata()
		}
	}
	return CodeUnknown, nil
}
