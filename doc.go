// Package secrets implements a session based web authentication flow:
// local email/password registration and login, federated login through
// Google OAuth2, and session gated access to protected pages.
//
// # Architecture
//
// CredentialStore: one record per identity, keyed by email. The stored
// credential is either a bcrypt digest (local accounts) or a sentinel
// value marking a federated-only account with no local password. Store
// implementations live in the stores subpackages; the store's uniqueness
// constraint on email, not application locking, is what resolves
// concurrent registrations for the same address.
//
// Strategies: LocalStrategy verifies email/password pairs against the
// store, FederatedStrategy exchanges a provider assertion for a local
// record, creating one on first login. Both produce an AuthResult that
// keeps "wrong credentials" distinct from "something broke".
//
// SessionManager: serializes the authenticated principal into a
// server-side session addressed by an opaque cookie token, and
// rehydrates it on later requests.
//
// Gateway: the decision layer. It dispatches a login to a strategy,
// turns the result into a session plus redirect, answers the
// "is this request authenticated" predicate, and gates protected
// resources.
//
// # Basic Usage
//
//	store := fs.NewUserStore("/path/to/storage")
//	sessions := secrets.NewSessionManager(false)
//	gateway := &secrets.Gateway{
//	    Local:     &secrets.LocalStrategy{Store: store, Hasher: &secrets.BcryptHasher{}},
//	    Federated: &secrets.FederatedStrategy{Store: store},
//	    Sessions:  sessions,
//	}
//
//	mux.Handle("/secrets", gateway.RequireUser(secretsPage))
//	handler := sessions.Middleware(mux)
//
// # Testing
//
// All handlers can be exercised without a running server using
// httptest.NewRequest and httptest.ResponseRecorder, with the fs store
// pointed at a temporary directory for isolation.
package secrets
