// Package reqrestest provides an in-process twin of the reqres.in users API.
package reqrestest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ethereum-optimism/infra/api-acceptor/reqres"
)

// Users returns the twelve users the public API serves
func Users() []reqres.User {
	names := [][2]string{
		{"George", "Bluth"},
		{"Janet", "Weaver"},
		{"Emma", "Wong"},
		{"Eve", "Holt"},
		{"Charles", "Morris"},
		{"Tracey", "Ramos"},
		{"Michael", "Lawson"},
		{"Lindsay", "Ferguson"},
		{"Tobias", "Funke"},
		{"Byron", "Fields"},
		{"George", "Edwards"},
		{"Rachel", "Howell"},
	}
	users := make([]reqres.User, 0, len(names))
	for i, n := range names {
		id := i + 1
		users = append(users, reqres.User{
			ID:        id,
			Email:     fmt.Sprintf("%s.%s@reqres.in", strings.ToLower(n[0]), strings.ToLower(n[1])),
			FirstName: n[0],
			LastName:  n[1],
			Avatar:    fmt.Sprintf("https://reqres.in/img/faces/%d-image.jpg", id),
		})
	}
	return users
}

// Server is a chi router serving /api/users
type Server struct {
	mu       sync.Mutex
	users    []reqres.User
	perPage  int
	apiKey   string
	override map[string]json.RawMessage
	status   int
	requests int
}

// Option configures a Server
type Option func(*Server)

// WithAPIKey requires the given x-api-key on every request
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithUsers replaces the served users
func WithUsers(users []reqres.User) Option {
	return func(s *Server) { s.users = users }
}

// NewServer creates a twin with the default data set
func NewServer(opts ...Option) *Server {
	s := &Server{
		users:   Users(),
		perPage: 6,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start serves the twin on a local httptest server closed at test cleanup
func (s *Server) Start(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/users", func(r chi.Router) {
		r.Use(s.apiKeyMiddleware)
		r.Get("/", s.listUsers)
		r.Get("/{id}", s.getUser)
	})
	return r
}

// FailWith makes every following request answer with the given status
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// OverrideField replaces a top-level field of the list response. A nil value removes it.
func (s *Server) OverrideField(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.override == nil {
		s.override = make(map[string]json.RawMessage)
	}
	if value == nil {
		s.override[name] = nil
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("reqrestest: cannot marshal override %s: %v", name, err))
	}
	s.override[name] = raw
}

// Requests returns how many requests reached the handlers
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		key, status := s.apiKey, s.status
		s.mu.Unlock()

		if key != "" && r.Header.Get(reqres.APIKeyHeader) != key {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Missing API key"})
			return
		}
		if status != 0 {
			writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid page"})
			return
		}
		page = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.users)
	totalPages := (total + s.perPage - 1) / s.perPage
	data := []reqres.User{}
	if from := (page - 1) * s.perPage; from < total {
		to := min(from+s.perPage, total)
		data = s.users[from:to]
	}

	body := map[string]any{
		"page":        page,
		"per_page":    s.perPage,
		"total":       total,
		"total_pages": totalPages,
		"data":        data,
		"support": reqres.Support{
			URL:  "https://contentcaddy.io?utm_source=reqres&utm_medium=json&utm_campaign=referral",
			Text: "Tired of writing endless social media content? Let Content Caddy generate it for you.",
		},
	}
	for name, raw := range s.override {
		if raw == nil {
			delete(body, name)
			continue
		}
		body[name] = raw
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"data": u})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
