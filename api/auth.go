package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/juridigo/procpipe/idgen"
)

const sessionTTL = 30 * 24 * time.Hour

type session struct {
	email   string
	expires time.Time
}

// sessionManager holds bearer tokens in memory. Tokens do not survive a
// restart; clients log in again.
type sessionManager struct {
	mu       sync.RWMutex
	sessions map[string]session
	newToken idgen.Generator
}

func newSessionManager() *sessionManager {
	return &sessionManager{
		sessions: make(map[string]session),
		newToken: idgen.Token(32),
	}
}

func (m *sessionManager) create(email string) string {
	token := m.newToken()
	m.mu.Lock()
	m.sessions[token] = session{email: email, expires: time.Now().Add(sessionTTL)}
	m.mu.Unlock()
	return token
}

func (m *sessionManager) lookup(token string) (string, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Now().After(sess.expires) {
		m.delete(token)
		return "", false
	}
	return sess.email, true
}

func (m *sessionManager) delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	user, err := s.store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Warn("login failed", "email", req.Email)
		writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	token := s.sessions.create(user.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"email": user.Email,
	})
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.sessions.delete(token)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	email, _ := s.sessions.lookup(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}

func (s *Service) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		if _, ok := s.sessions.lookup(token); !ok {
			writeError(w, http.StatusUnauthorized, errors.New("invalid or expired session"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
