package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

// SessionLifetime is the absolute validity window for a session and its
// cookie. There is no idle timeout; expiry is measured from issuance.
const SessionLifetime = 24 * time.Hour

// sessionUserKey names the session entry holding the serialized principal.
const sessionUserKey = "authUser"

// SessionManager binds authenticated principals to opaque, unguessable
// session tokens transported in a cookie.
//
// The full User record is serialized into the session: Resolve returns
// exactly what Establish was handed, with no store round trip. That
// keeps the session layer decoupled from storage, at the cost that
// mutations to the stored record after login are invisible to live
// sessions. (Storing only the id and re-fetching per request would
// trade a store query per request for freshness.)
type SessionManager struct {
	mgr *scs.SessionManager
}

// NewSessionManager builds a manager with the in-memory session store.
// The cookie is HttpOnly; secureCookies should be true whenever the
// site is served over https.
func NewSessionManager(secureCookies bool) *SessionManager {
	mgr := scs.New()
	mgr.Lifetime = SessionLifetime
	mgr.IdleTimeout = 0
	mgr.Cookie.HttpOnly = true
	mgr.Cookie.Secure = secureCookies
	return &SessionManager{mgr: mgr}
}

// Middleware loads and saves session state around every request. Any
// handler that touches the session must be mounted inside it.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return m.mgr.LoadAndSave(next)
}

// Establish mints a fresh token for user and stores the serialized
// principal against it. The token is renewed rather than reused so a
// token handed out before login can never name an authenticated session.
func (m *SessionManager) Establish(ctx context.Context, user *User) error {
	if err := m.mgr.RenewToken(ctx); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize principal: %w", err)
	}
	m.mgr.Put(ctx, sessionUserKey, data)
	return nil
}

// Resolve rehydrates the principal for the request's session. The second
// return is false when there is no session, it has expired, or it holds
// no principal.
func (m *SessionManager) Resolve(ctx context.Context) (*User, bool) {
	data := m.mgr.GetBytes(ctx, sessionUserKey)
	if len(data) == 0 {
		return nil, false
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		slog.Warn("dropping undecodable session principal", "err", err)
		return nil, false
	}
	return &user, true
}

// Invalidate removes the session. Destroying a session that does not
// exist is not an error; the call is idempotent.
func (m *SessionManager) Invalidate(ctx context.Context) error {
	return m.mgr.Destroy(ctx)
}
