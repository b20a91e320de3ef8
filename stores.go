package secrets

import (
	"context"
	"errors"
)

// SentinelCredential marks an account created through a federated login
// that has never set a local password. It is stored in place of a bcrypt
// digest and can never verify against any plaintext.
const SentinelCredential = "federated"

// ErrEmailTaken is returned by Insert when a record with the same email
// already exists. Stores must also surface their uniqueness-constraint
// violations as this error so that callers can treat a lost insert race
// as "user already exists".
var ErrEmailTaken = errors.New("email already registered")

// User is a single identity record. The ID is assigned by the store on
// creation and opaque to everything else.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// Credential is a bcrypt digest for local accounts, or
	// SentinelCredential for federated-only accounts.
	Credential string `json:"credential"`
}

// HasLocalPassword reports whether the account can authenticate with a
// local password at all.
func (u *User) HasLocalPassword() bool {
	return u.Credential != SentinelCredential
}

// CredentialStore persists identity records. Emails are opaque text:
// lookups are exact-match, with no trimming or case folding.
//
// Implementations must enforce uniqueness of email at the storage layer
// (unique index, exclusive file create) so that of two concurrent
// inserts for the same email exactly one succeeds and the other sees
// ErrEmailTaken.
type CredentialStore interface {
	// FindByEmail returns (nil, nil) when no record exists.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Insert creates a record and assigns its ID. Returns ErrEmailTaken
	// when the email is already present.
	Insert(ctx context.Context, email, credential string) (*User, error)
}
