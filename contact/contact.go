// Package contact holds the Contact entity: normalization of untrusted input,
// validation, and the use cases that persist it through a Repository.
package contact

import (
	"time"

	"github.com/google/uuid"
)

// Document keys of the writable fields.
const (
	KeyFirstName = "firstName"
	KeyLastName  = "lastName"
	KeyEmail     = "email"
	KeyPhone     = "phone"
)

// ID identifies a stored contact. The text form is a UUID.
type ID string

// NewID returns a fresh, time-ordered identifier.
func NewID() (ID, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return ID(u.String()), nil
}

// ParseID reports whether s is a well-formed identifier and returns it in
// canonical (lower-case, hyphenated) form.
func ParseID(s string) (ID, bool) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return "", false
	}
	return ID(u.String()), true
}

func (id ID) String() string { return string(id) }

// Input is the raw, untrusted mapping a caller hands in (decoded JSON, form values...).
type Input map[string]any

// Fields is the normalized writable shape of a contact.
type Fields struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
}

// Input returns the fields as a raw mapping, keyed like the stored document.
func (f Fields) Input() Input {
	return Input{
		KeyFirstName: f.FirstName,
		KeyLastName:  f.LastName,
		KeyEmail:     f.Email,
		KeyPhone:     f.Phone,
	}
}

// Contact is a persisted record.
type Contact struct {
	ID        ID        `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// New builds a record from normalized fields.
func New(id ID, f Fields, createdAt time.Time) Contact {
	return Contact{
		ID:        id,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
		CreatedAt: createdAt,
	}
}

// Fields returns the writable part of the record.
func (c Contact) Fields() Fields {
	return Fields{FirstName: c.FirstName, LastName: c.LastName, Email: c.Email, Phone: c.Phone}
}

// WithFields returns a copy with all writable fields replaced. ID and CreatedAt are kept.
func (c Contact) WithFields(f Fields) Contact {
	c.FirstName, c.LastName, c.Email, c.Phone = f.FirstName, f.LastName, f.Email, f.Phone
	return c
}
