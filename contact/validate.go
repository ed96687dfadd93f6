package contact

import (
	"fmt"
	"sort"
	"strings"

	play "github.com/go-playground/validator/v10"

	apperr "github.com/vortex-fintech/contacts/foundation/errors"
	"github.com/vortex-fintech/contacts/foundation/validator"
)

// Kind classifies a validation failure.
type Kind int

const (
	MissingFirstName Kind = iota + 1
	InvalidEmailFormat
	MissingContactMethod
)

const tagContactMethod = "contact_method"

// FieldContactMethod names the violation that concerns email and phone together.
const FieldContactMethod = KeyEmail + "|" + KeyPhone

func init() {
	validator.RegisterReason(tagContactMethod, MissingContactMethod.Reason())
	validator.RegisterStructRule(contactMethodRule, Fields{})
}

// contactMethodRule requires at least one of email or phone.
func contactMethodRule(sl play.StructLevel) {
	f := sl.Current().Interface().(Fields)
	if f.Email == "" && f.Phone == "" {
		sl.ReportError(f.Email, KeyEmail, "Email", tagContactMethod, "")
	}
}

func (k Kind) String() string {
	switch k {
	case MissingFirstName:
		return "MissingFirstName"
	case InvalidEmailFormat:
		return "InvalidEmailFormat"
	case MissingContactMethod:
		return "MissingContactMethod"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Reason is the machine code used in error responses.
func (k Kind) Reason() string {
	switch k {
	case MissingFirstName:
		return "required"
	case InvalidEmailFormat:
		return "invalid_email"
	case MissingContactMethod:
		return "email_or_phone_required"
	default:
		return "invalid"
	}
}

// Violation is one failed rule, attributed to the offending field.
type Violation struct {
	Kind  Kind   `json:"kind"`
	Field string `json:"field"`
}

// Message is the human-readable text of the violation.
func (v Violation) Message() string {
	switch v.Kind {
	case MissingFirstName:
		return "firstName is required."
	case InvalidEmailFormat:
		return "invalid email."
	case MissingContactMethod:
		return "at least one of email or phone must be provided."
	default:
		return "invalid " + v.Field + "."
	}
}

// Violations is ordered: first name, email format, contact method.
type Violations []Violation

func (vs Violations) Has(k Kind) bool {
	for _, v := range vs {
		if v.Kind == k {
			return true
		}
	}
	return false
}

func (vs Violations) Messages() []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Message())
	}
	return out
}

// Err returns nil when there are no violations.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: append(Violations(nil), vs...)}
}

// ValidationError is returned by Service.Register and Service.Edit when input is rejected.
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	return "contact: validation failed: " + strings.Join(e.Violations.Messages(), " ")
}

// ErrorResponse implements errors.Responder.
func (e *ValidationError) ErrorResponse() apperr.ErrorResponse {
	fv := make([]apperr.FieldViolation, 0, len(e.Violations))
	for _, v := range e.Violations {
		fv = append(fv, apperr.FieldViolation{Field: v.Field, Reason: v.Kind.Reason(), Description: v.Message()})
	}
	return apperr.ValidationViolations(fv)
}

// Validate normalizes in and checks the contact rules. Every rule is
// evaluated; the fields are returned even when violations exist.
func Validate(in Input) (Fields, Violations) {
	f := Normalize(in)
	return f, Check(f)
}

// Check validates already-normalized fields.
func Check(f Fields) Violations {
	errs, err := validator.Check(f)
	if err != nil {
		// Fields is always a struct value; this is unreachable in practice.
		panic(fmt.Sprintf("contact: validator: %v", err))
	}

	var out Violations
	for _, e := range errs {
		switch {
		case e.Field == KeyFirstName && e.Tag == "required":
			out = append(out, Violation{Kind: MissingFirstName, Field: KeyFirstName})
		case e.Field == KeyEmail && e.Tag == "email":
			out = append(out, Violation{Kind: InvalidEmailFormat, Field: KeyEmail})
		case e.Tag == tagContactMethod:
			out = append(out, Violation{Kind: MissingContactMethod, Field: FieldContactMethod})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
