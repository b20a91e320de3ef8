package oauth2

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	xoauth2 "golang.org/x/oauth2"

	"github.com/panyam/secrets"
)

// mockProvider fakes the Google token and userinfo endpoints.
func mockProvider(t *testing.T, userinfoBody string, userinfoStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") == "bad-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"mock-access-token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer mock-access-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userinfoStatus)
		fmt.Fprint(w, userinfoBody)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestGoogle(t *testing.T, provider *httptest.Server, handle HandleAssertionFunc) *GoogleOAuth2 {
	t.Helper()
	g := NewGoogleOAuth2("test-client-id", "test-client-secret", "http://localhost/auth/google/callback", handle)
	g.SetOAuthEndpoint(xoauth2.Endpoint{
		AuthURL:  provider.URL + "/auth",
		TokenURL: provider.URL + "/token",
	})
	g.UserInfoURL = provider.URL + "/userinfo"
	return g
}

func callbackRequest(state, code string, cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest("GET", "/auth/google/callback?state="+url.QueryEscape(state)+"&code="+code, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestHandleRedirect(t *testing.T) {
	provider := mockProvider(t, "{}", http.StatusOK)
	g := newTestGoogle(t, provider, nil)

	w := httptest.NewRecorder()
	g.HandleRedirect(w, httptest.NewRequest("GET", "/auth/google", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}
	if !strings.HasPrefix(loc.String(), provider.URL+"/auth") {
		t.Errorf("redirected to %s, want the provider auth endpoint", loc)
	}
	if loc.Query().Get("client_id") != "test-client-id" {
		t.Errorf("client_id = %q", loc.Query().Get("client_id"))
	}
	if !strings.Contains(loc.Query().Get("scope"), "userinfo.email") {
		t.Errorf("scope = %q, want userinfo.email included", loc.Query().Get("scope"))
	}

	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("no state in the authorization URL")
	}
	var stateCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == stateCookieName {
			stateCookie = c
		}
	}
	if stateCookie == nil || stateCookie.Value != state {
		t.Errorf("state cookie %+v does not match url state %q", stateCookie, state)
	}
}

func TestCallbackSuccess(t *testing.T) {
	provider := mockProvider(t,
		`{"id":"google-123","email":"alice@example.com","verified_email":true,"name":"Alice","picture":"https://example.com/a.png"}`,
		http.StatusOK)

	var got *secrets.Assertion
	g := newTestGoogle(t, provider, func(assertion secrets.Assertion, token *xoauth2.Token, w http.ResponseWriter, r *http.Request) {
		got = &assertion
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	g.HandleCallback(w, callbackRequest("good-state", "good-code", &http.Cookie{Name: stateCookieName, Value: "good-state"}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got == nil {
		t.Fatal("assertion handler was not called")
	}
	if got.Email != "alice@example.com" || got.Subject != "google-123" || got.Name != "Alice" {
		t.Errorf("assertion = %+v", got)
	}
}

func TestCallbackStateChecks(t *testing.T) {
	provider := mockProvider(t, "{}", http.StatusOK)
	g := newTestGoogle(t, provider, func(assertion secrets.Assertion, token *xoauth2.Token, w http.ResponseWriter, r *http.Request) {
		t.Error("assertion handler called despite a bad state")
	})

	tests := []struct {
		name   string
		state  string
		cookie *http.Cookie
	}{
		{"missing cookie", "some-state", nil},
		{"empty cookie", "some-state", &http.Cookie{Name: stateCookieName, Value: ""}},
		{"mismatched state", "attacker-state", &http.Cookie{Name: stateCookieName, Value: "real-state"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			g.HandleCallback(w, callbackRequest(tt.state, "good-code", tt.cookie))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCallbackExchangeFailureRedirects(t *testing.T) {
	provider := mockProvider(t, "{}", http.StatusOK)
	g := newTestGoogle(t, provider, func(assertion secrets.Assertion, token *xoauth2.Token, w http.ResponseWriter, r *http.Request) {
		t.Error("assertion handler called despite a failed exchange")
	})

	w := httptest.NewRecorder()
	g.HandleCallback(w, callbackRequest("good-state", "bad-code", &http.Cookie{Name: stateCookieName, Value: "good-state"}))

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	if loc := w.Result().Header.Get("Location"); loc != "/login?error=google" {
		t.Errorf("redirected to %q", loc)
	}
}

func TestCallbackUserInfoFailures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"endpoint error", "server on fire", http.StatusInternalServerError},
		{"no email", `{"id":"google-123"}`, http.StatusOK},
		{"undecodable body", "{not json", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mockProvider(t, tt.body, tt.status)
			g := newTestGoogle(t, provider, func(assertion secrets.Assertion, token *xoauth2.Token, w http.ResponseWriter, r *http.Request) {
				t.Error("assertion handler called despite a userinfo failure")
			})

			w := httptest.NewRecorder()
			g.HandleCallback(w, callbackRequest("good-state", "good-code", &http.Cookie{Name: stateCookieName, Value: "good-state"}))

			if w.Code != http.StatusTemporaryRedirect {
				t.Errorf("status = %d, want 307", w.Code)
			}
		})
	}
}
