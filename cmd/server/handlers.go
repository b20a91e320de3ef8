package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/panyam/secrets"
	googleoauth "github.com/panyam/secrets/oauth2"
)

type server struct {
	gateway *secrets.Gateway
	google  *googleoauth.GoogleOAuth2
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/register", s.handleRegisterForm).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.Handle("/secrets", s.gateway.RequireUser(http.HandlerFunc(s.handleSecrets))).Methods(http.MethodGet)
	r.HandleFunc("/auth/google", s.google.HandleRedirect).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/callback", s.google.HandleCallback).Methods(http.MethodGet)
	r.HandleFunc("/logout", s.gateway.Logout).Methods(http.MethodGet)
	r.HandleFunc("/api/me", s.handleAPIMe).Methods(http.MethodGet)
	return r
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	render(w, "home.html", nil)
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	render(w, "login.html", map[string]any{
		"Error": r.URL.Query().Get("error"),
	})
}

func (s *server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	render(w, "register.html", nil)
}

func (s *server) handleSecrets(w http.ResponseWriter, r *http.Request) {
	user, _ := s.gateway.CurrentUser(r)
	render(w, "secrets.html", map[string]any{"User": user})
}

// handleLogin runs the local strategy. The form's username field carries
// the email.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email, password, ok := loginForm(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	s.gateway.Login(w, r, secrets.StrategyLocal, secrets.Credentials{Email: email, Password: password})
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	email, password, ok := loginForm(r)
	if !ok {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}
	s.gateway.Register(w, r, email, password)
}

// handleAPIMe answers with the user id carried by the auth-token cookie
// or an Authorization bearer header.
func (s *server) handleAPIMe(w http.ResponseWriter, r *http.Request) {
	tokens := []string{}
	if auth := r.Header.Get("Authorization"); auth != "" {
		tokens = append(tokens, strings.TrimPrefix(auth, "Bearer "))
	}
	if cookie, err := r.Cookie(secrets.AuthTokenCookie); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}

	for _, token := range tokens {
		if userID, err := s.gateway.VerifyAuthToken(token); err == nil {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"user_id": userID})
			return
		}
	}
	http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
}

func loginForm(r *http.Request) (email, password string, ok bool) {
	if err := r.ParseForm(); err != nil {
		return "", "", false
	}
	email = r.FormValue("username")
	password = r.FormValue("password")
	return email, password, email != "" && password != ""
}
