package repository

import (
	"context"
	"time"

	"briefcase/internal/model"
)

// TransitionFunc inspects and mutates a locked document. Changes it makes to
// ViewCount and Deleted are persisted even when it returns an error; the error is
// handed back to the caller of Transition unchanged.
type TransitionFunc func(doc *model.Document) error

// DocumentRepository defines data access for documents. No lifecycle rules live here;
// implementations only guarantee that Transition is atomic per document.
type DocumentRepository interface {
	// Create inserts a new document record and returns it with the store-assigned ID.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Transition loads the document with the given ID under an exclusive per-row lock,
	// runs fn and writes back ViewCount and Deleted if fn changed them.
	// Deleted rows are loaded too. Returns model.ErrDocumentNotFound if no row exists.
	Transition(ctx context.Context, id int64, fn TransitionFunc) (*model.Document, error)

	// SoftDeleteStale marks every live document that expired at or before now, or whose
	// view count reached its limit, as deleted. Returns the number of rows flipped.
	SoftDeleteStale(ctx context.Context, now time.Time) (int64, error)

	// ListActiveFor returns live documents where identity is sender or recipient,
	// with usernames resolved. Derived flags are left for the caller.
	ListActiveFor(ctx context.Context, identity int64) ([]model.DocumentView, error)
}

// UserRepository is the identity lookup table documents reference.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ListExcept returns every user but the one with the given ID, ordered by username.
	ListExcept(ctx context.Context, id int64) ([]model.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
