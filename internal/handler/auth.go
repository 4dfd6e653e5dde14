package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/scribble/internal/auth"
	"github.com/dukerupert/scribble/internal/model"
	"github.com/dukerupert/scribble/internal/service"
)

type AuthHandler struct {
	auth       *service.AuthService
	sessionTTL time.Duration
	templates  *template.Template
	logger     *slog.Logger
}

func NewAuthHandler(as *service.AuthService, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:       as,
		sessionTTL: sessionTTL,
		templates:  parseTemplates(),
		logger:     logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, http.StatusOK, "login.html", page{
		Title: "Login",
		User:  auth.FromContext(r.Context()),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	emailAddr := r.FormValue("email")
	password := r.FormValue("password")

	sess, _, err := h.auth.Login(r.Context(), emailAddr, password)
	if err != nil {
		msg, ok := service.UserMessage(err)
		if !ok {
			h.logger.Error("login", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		render(w, h.templates, h.logger, http.StatusOK, "login.html", page{
			Title: "Login",
			Error: msg,
			Email: emailAddr,
		})
		return
	}

	h.setSessionCookie(w, r, sess)
	setFlash(w, r, flashLoggedIn)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.templates, h.logger, http.StatusOK, "sign_up.html", page{
		Title: "Sign Up",
		User:  auth.FromContext(r.Context()),
	})
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	in := service.RegisterInput{
		Email:           r.FormValue("email"),
		FirstName:       r.FormValue("firstName"),
		Password:        r.FormValue("password1"),
		PasswordConfirm: r.FormValue("password2"),
	}

	sess, _, err := h.auth.Register(r.Context(), in)
	if err != nil {
		msg, ok := service.UserMessage(err)
		if !ok {
			h.logger.Error("sign up", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		render(w, h.templates, h.logger, http.StatusOK, "sign_up.html", page{
			Title:     "Sign Up",
			Error:     msg,
			Email:     in.Email,
			FirstName: in.FirstName,
		})
		return
	}

	h.setSessionCookie(w, r, sess)
	setFlash(w, r, flashAccountCreated)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), auth.FromContext(r.Context())); err != nil {
		h.logger.Error("logout", "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}
