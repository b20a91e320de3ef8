// Package oauth2 implements the federated side of the login flow
// against Google's OAuth2 endpoints: the authorization redirect with an
// anti-CSRF state cookie, the authorization-code exchange, and the
// userinfo fetch that produces the assertion handed to the federated
// strategy.
package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/panyam/secrets"
)

// HandleAssertionFunc receives the verified assertion after a
// successful provider exchange, along with the provider token.
type HandleAssertionFunc func(assertion secrets.Assertion, token *oauth2.Token, w http.ResponseWriter, r *http.Request)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleUserInfo mirrors the fields read from the userinfo endpoint.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type GoogleOAuth2 struct {
	// HandleAssertion is called on a successful exchange.
	HandleAssertion HandleAssertionFunc

	// FailURL receives the redirect when the provider exchange or the
	// userinfo fetch fails. Defaults to /login?error=google.
	FailURL string

	// UserInfoURL overrides the Google userinfo endpoint, for tests.
	UserInfoURL string

	oauthConfig oauth2.Config
}

func NewGoogleOAuth2(clientId, clientSecret, callbackUrl string, handleAssertion HandleAssertionFunc) *GoogleOAuth2 {
	if clientId == "" {
		clientId = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if callbackUrl == "" {
		callbackUrl = os.Getenv("GOOGLE_CALLBACK_URL")
	}

	return &GoogleOAuth2{
		HandleAssertion: handleAssertion,
		FailURL:         "/login?error=google",
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// SetOAuthEndpoint overrides the provider's auth and token endpoints,
// for tests.
func (g *GoogleOAuth2) SetOAuthEndpoint(endpoint oauth2.Endpoint) {
	g.oauthConfig.Endpoint = endpoint
}

// HandleRedirect sends the browser to the provider's authorization
// endpoint, recording the state in a short-lived cookie.
func (g *GoogleOAuth2) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	state := generateStateOauthCookie(w)
	http.Redirect(w, r, g.oauthConfig.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback completes the authorization-code exchange. A missing or
// mismatched state is a bad request; a failed exchange or userinfo fetch
// redirects to FailURL rather than crashing the flow.
func (g *GoogleOAuth2) HandleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, _ := r.Cookie(stateCookieName)
	if oauthState == nil || oauthState.Value == "" {
		http.Error(w, "missing oauth state", http.StatusBadRequest)
		return
	}
	if r.FormValue("state") != oauthState.Value {
		clearStateCookie(w)
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}
	clearStateCookie(w)

	token, err := g.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		slog.Error("oauth code exchange failed", "err", err)
		http.Redirect(w, r, g.failURL(), http.StatusTemporaryRedirect)
		return
	}

	assertion, err := g.fetchUserInfo(r.Context(), token)
	if err != nil {
		slog.Error("failed to fetch google user info", "err", err)
		http.Redirect(w, r, g.failURL(), http.StatusTemporaryRedirect)
		return
	}

	g.HandleAssertion(assertion, token, w, r)
}

func (g *GoogleOAuth2) fetchUserInfo(ctx context.Context, token *oauth2.Token) (secrets.Assertion, error) {
	url := g.UserInfoURL
	if url == "" {
		url = defaultUserInfoURL
	}

	resp, err := g.oauthConfig.Client(ctx, token).Get(url)
	if err != nil {
		return secrets.Assertion{}, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return secrets.Assertion{}, fmt.Errorf("userinfo endpoint returned %s", resp.Status)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return secrets.Assertion{}, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Email == "" {
		return secrets.Assertion{}, fmt.Errorf("provider returned no email")
	}

	return secrets.Assertion{
		Email:   info.Email,
		Subject: info.ID,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

func (g *GoogleOAuth2) failURL() string {
	if g.FailURL != "" {
		return g.FailURL
	}
	return "/login?error=google"
}
