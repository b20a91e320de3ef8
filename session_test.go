package secrets

import (
	"context"
	"testing"
	"time"
)

// loadSession drives the scs lifecycle the way the middleware would,
// returning a context ready for Establish/Resolve/Invalidate.
func loadSession(t *testing.T, m *SessionManager, token string) context.Context {
	t.Helper()
	ctx, err := m.mgr.Load(context.Background(), token)
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return ctx
}

func commitSession(t *testing.T, m *SessionManager, ctx context.Context) string {
	t.Helper()
	token, _, err := m.mgr.Commit(ctx)
	if err != nil {
		t.Fatalf("failed to commit session: %v", err)
	}
	return token
}

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager(false)
	user := &User{ID: "u-1", Email: "alice@example.com", Credential: "digest"}

	ctx := loadSession(t, m, "")
	if _, ok := m.Resolve(ctx); ok {
		t.Fatal("fresh session should hold no principal")
	}

	if err := m.Establish(ctx, user); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	token := commitSession(t, m, ctx)

	ctx2 := loadSession(t, m, token)
	got, ok := m.Resolve(ctx2)
	if !ok {
		t.Fatal("expected a principal after Establish")
	}
	if got.ID != user.ID || got.Email != user.Email || got.Credential != user.Credential {
		t.Errorf("resolved %+v, want %+v", got, user)
	}

	if err := m.Invalidate(ctx2); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, ok := m.Resolve(ctx2); ok {
		t.Error("principal survived Invalidate")
	}
	if err := m.Invalidate(ctx2); err != nil {
		t.Errorf("second Invalidate should be a no-op, got: %v", err)
	}
}

func TestSessionTokenRenewedOnEstablish(t *testing.T) {
	m := NewSessionManager(false)

	ctx := loadSession(t, m, "")
	preLogin := commitSession(t, m, ctx)

	ctx2 := loadSession(t, m, preLogin)
	if err := m.Establish(ctx2, &User{ID: "u-1", Email: "alice@example.com"}); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	postLogin := commitSession(t, m, ctx2)

	if postLogin == preLogin {
		t.Error("login must not reuse the anonymous token")
	}
	if _, ok := m.Resolve(loadSession(t, m, preLogin)); ok {
		t.Error("the pre-login token must not name an authenticated session")
	}
}

func TestSessionExpiry(t *testing.T) {
	m := NewSessionManager(false)
	m.mgr.Lifetime = 50 * time.Millisecond

	ctx := loadSession(t, m, "")
	if err := m.Establish(ctx, &User{ID: "u-1", Email: "alice@example.com"}); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	token := commitSession(t, m, ctx)

	time.Sleep(100 * time.Millisecond)

	if _, ok := m.Resolve(loadSession(t, m, token)); ok {
		t.Error("expected the session to have expired")
	}
}

func TestResolveDropsUndecodablePrincipal(t *testing.T) {
	m := NewSessionManager(false)

	ctx := loadSession(t, m, "")
	m.mgr.Put(ctx, sessionUserKey, []byte("{not json"))

	if _, ok := m.Resolve(ctx); ok {
		t.Error("undecodable principal resolved")
	}
}
