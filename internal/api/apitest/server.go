// Package apitest runs an in-process fake of the order-management API for
// tests. It issues real HS256 tokens, enforces the role rules of the real
// API and records every request it receives.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Request is a request recorded by the fake server.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

type account struct {
	user     domain.User
	password string
}

type failure struct {
	status int
	body   string
}

// Server is the fake API. Exported slices are the server-side state; lock
// with Lock/Unlock when touching them while requests may be in flight.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	secret   []byte
	tokenTTL time.Duration
	accounts map[string]*account
	revoked  map[string]bool
	nextID   int64
	requests []Request
	failures map[string][]failure
	delays   map[string]time.Duration

	Categories []domain.Category
	Products   []domain.Product
	Orders     []domain.Order
	Payments   []domain.Payment
	Deliveries []domain.Delivery
	Promotions []domain.Promotion
	Messages   []domain.ChatMessage
	Assigned   map[int64]int64
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:   []byte("apitest-secret"),
		tokenTTL: time.Hour,
		accounts: make(map[string]*account),
		revoked:  make(map[string]bool),
		nextID:   1000,
		failures: make(map[string][]failure),
		delays:   make(map[string]time.Duration),
		Assigned: make(map[int64]int64),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API root to be used as the client base URL.
func (s *Server) BaseURL() string {
	return s.Server.URL + "/api"
}

// Lock locks the server state.
func (s *Server) Lock() { s.mu.Lock() }

// Unlock unlocks the server state.
func (s *Server) Unlock() { s.mu.Unlock() }

// AddUser registers an account and returns the stored user.
func (s *Server) AddUser(nomComplet, email, password string, role domain.Role) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(nomComplet, email, password, role)
}

func (s *Server) addUserLocked(nomComplet, email, password string, role domain.Role) domain.User {
	s.nextID++
	u := domain.User{ID: s.nextID, NomComplet: nomComplet, Email: email, Role: role}
	s.accounts[strings.ToLower(email)] = &account{user: u, password: password}
	return u
}

// TokenFor issues a valid token for the account with the given email.
func (s *Server) TokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		panic("apitest: unknown account " + email)
	}
	return s.issueLocked(acc.user, s.tokenTTL)
}

// ExpiredTokenFor issues a token for email that expired an hour ago.
func (s *Server) ExpiredTokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(s.accounts[strings.ToLower(email)].user, -time.Hour)
}

func (s *Server) issueLocked(u domain.User, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   fmt.Sprint(u.ID),
		"email": u.Email,
		"role":  string(u.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"jti":   fmt.Sprint(now.UnixNano()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) validate(token string) (*middleware.Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[token] {
		return nil, fmt.Errorf("token revoked")
	}
	claims := parsed.Claims.(jwt.MapClaims)
	email, _ := claims["email"].(string)
	acc, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("unknown account")
	}
	return &middleware.Claims{UserID: acc.user.ID, Email: acc.user.Email, Role: string(acc.user.Role)}, nil
}

// FailNext makes the next request matching method and path (without the
// /api prefix) answer status with body instead of being handled.
func (s *Server) FailNext(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure{status: status, body: body})
}

// Delay makes every request matching method and path wait d before being handled.
func (s *Server) Delay(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[method+" "+path] = d
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request matching method and path.
func (s *Server) LastRequest(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// record stores the request and applies queued failures and delays.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		path := strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   r.Method,
			Path:     path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     body,
		})
		key := r.Method + " " + path
		delay := s.delays[key]
		var fail *failure
		if queued := s.failures[key]; len(queued) > 0 {
			fail = &queued[0]
			s.failures[key] = queued[1:]
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			_, _ = io.WriteString(w, fail.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.Use(s.record)

	const (
		admin   = string(domain.RoleAdmin)
		employe = string(domain.RoleEmploye)
		client  = string(domain.RoleClient)
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(s.validate))

			r.Post("/logout", s.logout)
			r.Get("/user", s.me)

			r.Get("/produitsClient", s.listProducts)
			r.Get("/categories", s.listCategories)
			r.Get("/categories/{id}", s.getCategory)
			r.Get("/produits/{id}", s.getProduct)
			r.Get("/commandes/{id}", s.getOrder)

			r.Get("/chat/conversations", s.conversations)
			r.Get("/chat/unread-count", s.unreadCount)
			r.Get("/chat/conversations/{clientId}/messages", s.conversationMessages)
			r.Put("/chat/conversations/{clientId}/read", s.markConversationRead)
			r.Put("/chat/messages/{id}/read", s.markRead)
			r.Delete("/chat/messages/{id}", s.deleteMessage)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(admin))
				r.Get("/produits", s.listProducts)
				r.Post("/produits", s.createProduct)
				r.Post("/produits/{id}", s.updateProduct)
				r.Delete("/produits/{id}", s.deleteProduct)
				r.Post("/produits/{id}/restock", s.restock)
				r.Get("/produits/low-stock", s.lowStock)
				r.Get("/produits/stock-statistics", s.stockStatistics)

				r.Post("/categories", s.createCategory)
				r.Put("/categories/{id}", s.updateCategory)
				r.Delete("/categories/{id}", s.deleteCategory)

				r.Get("/users", s.listUsers)

				r.Get("/promotions", s.listPromotions)
				r.Post("/promotions", s.createPromotion)
				r.Post("/promotions/{id}/produits", s.attachProduct)
				r.Delete("/promotions/{id}/produits/{produitId}", s.detachProduct)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(admin, employe))
				r.Get("/commandes", s.listOrders)
				r.Put("/commandes/{id}", s.updateOrder)
				r.Get("/paiements", s.listPayments)
				r.Get("/livraisons", s.listDeliveries)
				r.Post("/chat/reply", s.reply)
				r.Post("/chat/assign", s.assign)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(client))
				r.Post("/commandes", s.createOrder)
				r.Get("/commandes/client", s.myOrders)
				r.Post("/chat/messages", s.sendMessage)
			})
		})
	})
	return r
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteMessage(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func claims(r *http.Request) *middleware.Claims {
	return middleware.ClaimsFromContext(r.Context())
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func invalid(w http.ResponseWriter, r *http.Request, field, msg string) {
	httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.ErrorBody{
		Message: msg,
		Errors:  map[string][]string{field: {msg}},
	})
}

func notFound(w http.ResponseWriter) {
	httputil.WriteMessage(w, http.StatusNotFound, "No query results for model.")
}
