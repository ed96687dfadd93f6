package contact

import "context"

// Repository is the document store behind the Contact entity.
//
// Lookups by identifier return (nil, nil) when no record matches.
// Create applies defaults for unset fields and assigns ID and CreatedAt.
// FindAll orders by CreatedAt descending, newest first.
// UpdateByID replaces all writable fields and returns the updated record.
// DeleteByID returns the removed record.
type Repository interface {
	Create(ctx context.Context, f Fields) (Contact, error)
	FindByID(ctx context.Context, id ID) (*Contact, error)
	FindAll(ctx context.Context) ([]Contact, error)
	UpdateByID(ctx context.Context, id ID, f Fields) (*Contact, error)
	DeleteByID(ctx context.Context, id ID) (*Contact, error)
}

// NewestFirst reports whether a sorts before b in Repository.FindAll order:
// CreatedAt descending, ties broken by ID descending.
func NewestFirst(a, b Contact) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
