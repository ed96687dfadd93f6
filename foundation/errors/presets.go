package errors

import "google.golang.org/grpc/codes"

// Factory presets. Each call returns a fresh value.
func Unknown() ErrorResponse {
	return New("Unknown error occurred", codes.Unknown, nil).WithReason("unknown")
}
func InvalidArgument() ErrorResponse {
	return New("Invalid argument", codes.InvalidArgument, nil).WithReason("invalid_argument")
}
func Canceled() ErrorResponse {
	return New("Request canceled", codes.Canceled, nil).WithReason("canceled")
}
func DeadlineExceeded() ErrorResponse {
	return New("Deadline exceeded", codes.DeadlineExceeded, nil).WithReason("deadline_exceeded")
}
func NotFound() ErrorResponse {
	return New("Resource not found", codes.NotFound, nil).WithReason("not_found")
}
func Internal() ErrorResponse {
	return New("Internal error", codes.Internal, nil).WithReason("internal")
}
func Unavailable() ErrorResponse {
	return New("Service unavailable", codes.Unavailable, nil).WithReason("unavailable")
}

func ValidationViolations(v []FieldViolation) ErrorResponse {
	return InvalidArgument().
		WithReason("validation_failed").
		WithMessage("Validation failed").
		WithViolations(v)
}

// NotFoundID builds a not-found response carrying "<resource>_id".
func NotFoundID(resource, id string) ErrorResponse {
	return NotFound().
		WithMessage(resource + " not found").
		WithDetail(resource+"_id", id)
}
