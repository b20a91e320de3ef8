package secrets

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthTokenCookie carries a signed JWT issued alongside the session on
// every successful login, for API clients that want a bearer token
// without scraping the session cookie. It plays no part in the
// authenticated predicate for pages.
const AuthTokenCookie = "SecretsAuthToken"

// authTokenLifetime bounds the auxiliary JWT, independently of the session.
const authTokenLifetime = time.Hour

// MetricsRecorder receives authentication outcome counts. A nil recorder
// disables recording. The metrics package provides the Prometheus
// implementation.
type MetricsRecorder interface {
	RecordLogin(strategy, outcome string)
	RecordRegistration()
	RecordLogout()
}

// Credentials is the input to Gateway.Login. Email/Password feed the
// local strategy; Assertion feeds the federated one.
type Credentials struct {
	Email     string
	Password  string
	Assertion *Assertion
}

// Gateway is the decision layer: it routes a credential-bearing request
// to the matching strategy, turns the result into a session plus
// redirect, and answers the authenticated predicate used to protect
// resources. All collaborators are injected at construction; there is
// no ambient registry.
type Gateway struct {
	Local     *LocalStrategy
	Federated *FederatedStrategy
	Sessions  *SessionManager
	Metrics   MetricsRecorder

	// JWTSecretKey signs the auxiliary auth-token cookie. Empty disables it.
	JWTSecretKey string
	JWTIssuer    string

	// Redirect targets. Zero values fall back to /secrets, /login and /.
	ProtectedURL string
	LoginURL     string
	HomeURL      string
}

func (g *Gateway) protectedURL() string {
	if g.ProtectedURL != "" {
		return g.ProtectedURL
	}
	return "/secrets"
}

func (g *Gateway) loginURL() string {
	if g.LoginURL != "" {
		return g.LoginURL
	}
	return "/login"
}

func (g *Gateway) homeURL() string {
	if g.HomeURL != "" {
		return g.HomeURL
	}
	return "/"
}

// Login dispatches to the strategy named by kind. Success establishes a
// session and redirects to the protected page; rejection redirects back
// to the login page; a strategy error is answered with a definite 500,
// never left hanging.
func (g *Gateway) Login(w http.ResponseWriter, r *http.Request, kind StrategyKind, creds Credentials) {
	var res AuthResult
	switch kind {
	case StrategyLocal:
		res = g.Local.Authenticate(r.Context(), creds.Email, creds.Password)
	case StrategyFederated:
		if creds.Assertion == nil {
			res = Errored(errors.New("federated login without assertion"))
		} else {
			res = g.Federated.Authenticate(r.Context(), *creds.Assertion)
		}
	default:
		res = Errored(fmt.Errorf("unknown strategy kind %d", kind))
	}

	switch res.Status {
	case StatusSuccess:
		if err := g.establish(w, r, res.User); err != nil {
			g.fail(w, kind, fmt.Errorf("failed to establish session: %w", err))
			return
		}
		g.recordLogin(kind, "success")
		http.Redirect(w, r, g.protectedURL(), http.StatusFound)
	case StatusRejected:
		slog.Info("login rejected", "strategy", kind.String(), "reason", res.Reason)
		g.recordLogin(kind, "rejected")
		http.Redirect(w, r, g.loginURL(), http.StatusFound)
	default:
		g.fail(w, kind, res.Err)
	}
}

// Register creates a local account; success implies login, so a session
// is established before redirecting to the protected page. A duplicate
// email gets the plain-text notice rather than a session.
func (g *Gateway) Register(w http.ResponseWriter, r *http.Request, email, password string) {
	user, err := g.Local.Register(r.Context(), email, password)
	if errors.Is(err, ErrEmailTaken) {
		fmt.Fprint(w, "Email already exists. Try logging in.")
		return
	}
	if err != nil {
		slog.Error("registration failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := g.establish(w, r, user); err != nil {
		// The row exists but no session could be minted; answer
		// definitively rather than dropping the request.
		slog.Error("failed to establish session after registration", "user_id", user.ID, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if g.Metrics != nil {
		g.Metrics.RecordRegistration()
	}
	http.Redirect(w, r, g.protectedURL(), http.StatusFound)
}

// Logout invalidates the session whether or not one exists and always
// lands on the home page.
func (g *Gateway) Logout(w http.ResponseWriter, r *http.Request) {
	if err := g.Sessions.Invalidate(r.Context()); err != nil {
		slog.Warn("failed to destroy session", "err", err)
	}
	g.clearAuthTokenCookie(w)
	if g.Metrics != nil {
		g.Metrics.RecordLogout()
	}
	http.Redirect(w, r, g.homeURL(), http.StatusFound)
}

// IsAuthenticated reports whether the request's session token resolves
// to a principal.
func (g *Gateway) IsAuthenticated(r *http.Request) bool {
	_, ok := g.Sessions.Resolve(r.Context())
	return ok
}

// CurrentUser returns the principal for the request's session.
func (g *Gateway) CurrentUser(r *http.Request) (*User, bool) {
	return g.Sessions.Resolve(r.Context())
}

// RequireUser gates a protected resource: anonymous requests are
// redirected to the login page, authenticated ones pass through.
func (g *Gateway) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.IsAuthenticated(r) {
			http.Redirect(w, r, g.loginURL(), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// VerifyAuthToken parses a signed auth token and returns the subject
// user id.
func (g *Gateway) VerifyAuthToken(tokenString string) (string, error) {
	// Without a configured secret no token was ever issued; refusing here
	// keeps an empty HMAC key from verifying attacker-signed tokens.
	if g.JWTSecretKey == "" {
		return "", errors.New("auth tokens are not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(g.JWTSecretKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("subject not found")
	}
	return sub, nil
}

func (g *Gateway) establish(w http.ResponseWriter, r *http.Request, user *User) error {
	if err := g.Sessions.Establish(r.Context(), user); err != nil {
		return err
	}
	g.setAuthTokenCookie(w, user)
	return nil
}

func (g *Gateway) setAuthTokenCookie(w http.ResponseWriter, user *User) {
	if g.JWTSecretKey == "" {
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"iss": g.JWTIssuer,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(authTokenLifetime).Unix(),
	})
	signed, err := token.SignedString([]byte(g.JWTSecretKey))
	if err != nil {
		slog.Warn("failed to sign auth token", "err", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(authTokenLifetime.Seconds()),
		HttpOnly: true,
	})
}

func (g *Gateway) clearAuthTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:    AuthTokenCookie,
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
}

func (g *Gateway) fail(w http.ResponseWriter, kind StrategyKind, err error) {
	slog.Error("login failed", "strategy", kind.String(), "err", err)
	g.recordLogin(kind, "error")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (g *Gateway) recordLogin(kind StrategyKind, outcome string) {
	if g.Metrics != nil {
		g.Metrics.RecordLogin(kind.String(), outcome)
	}
}
