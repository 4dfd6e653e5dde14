package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/scribble/internal/config"
	"github.com/dukerupert/scribble/internal/handler"
	"github.com/dukerupert/scribble/internal/middleware"
	"github.com/dukerupert/scribble/internal/service"
	"github.com/dukerupert/scribble/internal/store"
	ws "github.com/dukerupert/scribble/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	noteH        *handler.NoteHandler
	authService  *service.AuthService
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	clientIP     func(*http.Request) string
	logger       *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	noteStore := store.NewNoteStore(db)
	sessionStore := store.NewSessionStore(db)

	authSvc := service.NewAuthService(userStore, sessionStore, cfg.Password.Iterations, cfg.Session.TTL, logger.With("component", "auth"))
	noteSvc := service.NewNoteService(noteStore, logger.With("component", "note"))

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(authSvc, cfg.Session.TTL, logger.With("component", "auth_handler")),
		noteH:        handler.NewNoteHandler(noteSvc, hub, logger.With("component", "note_handler")),
		authService:  authSvc,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window),
		clientIP:     middleware.ClientIP(cfg.TrustProxy),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the live note feed hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /login", s.authH.LoginPage)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /sign-up", s.authH.SignUpPage)
	outerMux.HandleFunc("POST /sign-up", s.rateLimitedHandler(s.authH.SignUp))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Identity is optional here; anonymous deletes are absorbed by the service.
	outerMux.HandleFunc("POST /delete-note", s.noteH.DeleteNote)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireAuth(protectedMux))

	withIdentity := middleware.LoadIdentity(s.authService, s.logger.With("component", "session"))
	return middleware.RequestLogger(s.logger.With("component", "http"), s.clientIP)(withIdentity(outerMux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, s.clientIP)(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /logout", s.authH.Logout)
	mux.HandleFunc("POST /logout", s.authH.Logout)

	mux.HandleFunc("GET /{$}", s.noteH.Home)
	mux.HandleFunc("POST /{$}", s.noteH.Create)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
