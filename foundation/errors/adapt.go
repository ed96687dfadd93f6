package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
)

// Responder is implemented by domain errors that know their own response shape.
type Responder interface {
	ErrorResponse() ErrorResponse
}

// ToErrorResponse converts any error into ErrorResponse.
// Supported inputs:
// - ErrorResponse / *ErrorResponse anywhere in the chain (errors.Join included)
// - context.Canceled / context.DeadlineExceeded
// - any error in the chain implementing Responder
// Everything else is Internal.
func ToErrorResponse(err error) ErrorResponse {
	if err == nil {
		return Internal().WithReason("unexpected_error")
	}

	if errors.Is(err, context.Canceled) {
		return Canceled()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return DeadlineExceeded()
	}

	var e ErrorResponse
	if errors.As(err, &e) {
		return e
	}
	var ep *ErrorResponse
	if errors.As(err, &ep) && ep != nil {
		return *ep
	}

	var r Responder
	if errors.As(err, &r) {
		return r.ErrorResponse()
	}

	return Internal().WithReason("unexpected_error")
}

// ExitCode maps a response code to a process exit status for command-line callers.
// 2 is reserved for caller mistakes (bad input), 3 for missing resources.
func ExitCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return 0
	case codes.InvalidArgument, codes.OutOfRange, codes.FailedPrecondition:
		return 2
	case codes.NotFound:
		return 3
	case codes.Canceled:
		return 130
	default:
		return 1
	}
}
