package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Assertion is the identity a federated provider has vouched for, after
// a completed authorization-code exchange. Email is the lookup key into
// the credential store; the rest is profile metadata.
type Assertion struct {
	Email   string
	Subject string // provider-scoped user id
	Name    string
	Picture string
}

// FederatedStrategy exchanges a provider assertion for a local user
// record, creating one with the sentinel credential on first login.
//
// An existing record is trusted on email match alone: there is no check
// of whether it was created locally or through a provider, so a local
// account and a federated login sharing an email resolve to the same
// user. Trust in the email is delegated entirely to the provider's
// assertion.
//
// The strategy never rejects; it either succeeds or errors.
type FederatedStrategy struct {
	Store CredentialStore
}

func (s *FederatedStrategy) Authenticate(ctx context.Context, assertion Assertion) AuthResult {
	if assertion.Email == "" {
		return Errored(errors.New("assertion carries no email"))
	}

	user, err := s.Store.FindByEmail(ctx, assertion.Email)
	if err != nil {
		return Errored(fmt.Errorf("failed to look up user: %w", err))
	}
	if user != nil {
		return Success(user)
	}

	created, err := s.Store.Insert(ctx, assertion.Email, SentinelCredential)
	if errors.Is(err, ErrEmailTaken) {
		// A concurrent first login won the insert; use the winner's row.
		existing, ferr := s.Store.FindByEmail(ctx, assertion.Email)
		if ferr != nil {
			return Errored(fmt.Errorf("failed to re-fetch user after lost insert race: %w", ferr))
		}
		if existing == nil {
			return Errored(fmt.Errorf("failed to create federated user: %w", err))
		}
		return Success(existing)
	}
	if err != nil {
		return Errored(fmt.Errorf("failed to create federated user: %w", err))
	}

	slog.Info("created federated user", "user_id", created.ID, "subject", assertion.Subject)
	return Success(created)
}
