package contact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	apperr "github.com/vortex-fintech/contacts/foundation/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Fields
	}{
		{
			name: "strings kept",
			in:   Input{"firstName": "Ana", "lastName": "Silva", "email": "ana@example.com", "phone": "123"},
			want: Fields{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com", Phone: "123"},
		},
		{
			name: "non strings coerced",
			in:   Input{"firstName": 42, "lastName": nil, "email": []string{"a@b.c"}, "phone": true},
			want: Fields{},
		},
		{
			name: "unknown keys dropped",
			in:   Input{"firstName": "A", "admin": true, "_id": "x", "createdAt": "2020-01-01"},
			want: Fields{FirstName: "A"},
		},
		{
			name: "absent keys read as empty",
			in:   Input{"phone": "9"},
			want: Fields{Phone: "9"},
		},
		{name: "nil input", in: nil, want: Fields{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := Input{"firstName": "Ana", "email": 7, "extra": "x"}
	once := Normalize(in)
	twice := Normalize(once.Input())
	assert.Equal(t, once, twice)
	assert.Len(t, once.Input(), 4)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := Input{"firstName": 1, "admin": true}
	_ = Normalize(in)
	assert.Equal(t, Input{"firstName": 1, "admin": true}, in)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want []Kind
	}{
		{name: "valid with email", in: Input{"firstName": "Ana", "email": "ana@example.com", "phone": ""}},
		{name: "valid with phone", in: Input{"firstName": "Ana", "phone": "+55 11 5555-0000"}},
		{name: "missing first name", in: Input{"email": "ana@example.com"}, want: []Kind{MissingFirstName}},
		{name: "non string first name", in: Input{"firstName": 10, "phone": "1"}, want: []Kind{MissingFirstName}},
		{name: "invalid email", in: Input{"firstName": "Ana", "email": "not-an-email"}, want: []Kind{InvalidEmailFormat}},
		{name: "no contact method", in: Input{"firstName": "Ana"}, want: []Kind{MissingContactMethod}},
		{name: "everything wrong", in: Input{"email": "nope", "phone": 5}, want: []Kind{MissingFirstName, InvalidEmailFormat}},
		{name: "empty", in: Input{}, want: []Kind{MissingFirstName, MissingContactMethod}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, vs := Validate(tt.in)
			var got []Kind
			for _, v := range vs {
				got = append(got, v.Kind)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_MessagesInOrder(t *testing.T) {
	_, vs := Validate(Input{"firstName": ""})
	assert.Equal(t, []string{
		"firstName is required.",
		"at least one of email or phone must be provided.",
	}, vs.Messages())

	_, vs = Validate(Input{"email": "bad"})
	assert.Equal(t, []string{"firstName is required.", "invalid email."}, vs.Messages())
}

func TestViolations_Err(t *testing.T) {
	assert.NoError(t, Violations(nil).Err())

	_, vs := Validate(Input{"firstName": "Ana", "email": "x"})
	err := vs.Err()
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Violations.Has(InvalidEmailFormat))
	assert.Contains(t, err.Error(), "invalid email.")

	resp := apperr.ToErrorResponse(err)
	assert.Equal(t, codes.InvalidArgument, resp.Code)
	assert.Equal(t, apperr.Reason("validation_failed"), resp.Reason)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, apperr.FieldViolation{Field: "email", Reason: "invalid_email", Description: "invalid email."}, resp.Violations[0])
}

func TestKind_JSON(t *testing.T) {
	b, err := json.Marshal(Violation{Kind: MissingContactMethod, Field: FieldContactMethod})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"MissingContactMethod","field":"email|phone"}`, string(b))
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestParseID(t *testing.T) {
	id, err := NewID()
	require.NoError(t, err)

	got, ok := ParseID(id.String())
	assert.True(t, ok)
	assert.Equal(t, id, got)

	for _, bad := range []string{"", "not-an-object-id", "123", "00000000-0000-0000-0000-000000000000"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
}
