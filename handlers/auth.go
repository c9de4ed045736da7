package handlers

import (
	"net/http"

	"counseling-records/auth"
	"counseling-records/middleware"

	"go.uber.org/zap"
)

type AuthHandler struct {
	gate   *auth.Gate
	render *Renderer
	logger *zap.Logger
}

func NewAuthHandler(gate *auth.Gate, render *Renderer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		gate:   gate,
		render: render,
		logger: logger,
	}
}

// LoginForm shows the password prompt. Unlocked sessions go straight to the
// create view.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.gate.IsAuthenticated(middleware.GetSession(r.Context())) {
		redirect(w, r, "/records/new")
		return
	}
	h.render.Render(w, http.StatusOK, "login", pageFor(r, "Login", nil))
}

// Login checks the submitted password against the admin secret.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("❌ Error parsing login form", zap.Error(err))
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	if h.gate.AttemptLogin(middleware.GetSession(r.Context()), r.PostFormValue("password")) {
		flash(r, auth.FlashSuccess, "✅ Logged in.")
		redirect(w, r, "/records/new")
		return
	}

	p := pageFor(r, "Login", nil)
	p.Flashes = append(p.Flashes, auth.Flash{Kind: auth.FlashError, Message: "❌ Incorrect password."})
	h.render.Render(w, http.StatusUnauthorized, "login", p)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Logout(middleware.GetSession(r.Context()))
	redirect(w, r, "/login")
}
