package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Rejection reasons reported by the strategies.
const (
	ReasonUserNotFound  = "user not found"
	ReasonBadCredential = "bad credential"
)

// LocalStrategy authenticates email/password credentials against the
// credential store.
type LocalStrategy struct {
	Store  CredentialStore
	Hasher PasswordHasher
}

// Authenticate looks the user up by email and verifies the password
// against the stored digest. Store and hasher failures surface as
// StatusError so callers can tell an outage from a bad password.
func (s *LocalStrategy) Authenticate(ctx context.Context, email, password string) AuthResult {
	user, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		return Errored(fmt.Errorf("failed to look up user: %w", err))
	}
	if user == nil {
		return Rejected(ReasonUserNotFound)
	}

	// Federated-only accounts carry the sentinel instead of a digest;
	// no password can ever match one.
	if !user.HasLocalPassword() {
		return Rejected(ReasonBadCredential)
	}

	ok, err := s.Hasher.Verify(password, user.Credential)
	if err != nil {
		return Errored(err)
	}
	if !ok {
		return Rejected(ReasonBadCredential)
	}
	return Success(user)
}

// Register creates a local account with a freshly hashed password.
// Returns ErrEmailTaken when the email is already registered, whether
// detected by the existence check or by losing the insert race to a
// concurrent registration.
func (s *LocalStrategy) Register(ctx context.Context, email, password string) (*User, error) {
	existing, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	digest, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.Store.Insert(ctx, email, digest)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("registered local user", "user_id", user.ID)
	return user, nil
}
