package handlers

import (
	"net/http"

	"counseling-records/apperr"
	"counseling-records/auth"
	"counseling-records/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Store    RecordStore
	Improver TextImprover
	DB       Pinger
	Gate     *auth.Gate
	Sessions *auth.SessionStore
	Tokens   *auth.SessionTokens
	Logger   *zap.Logger
}

// NewRouter builds the application routes behind the session and login
// middleware.
func NewRouter(deps Deps) (http.Handler, error) {
	render, err := NewRenderer(deps.Logger)
	if err != nil {
		return nil, err
	}

	authHandler := NewAuthHandler(deps.Gate, render, deps.Logger)
	recordHandler := NewRecordHandler(deps.Store, deps.Improver, render, deps.Logger)
	healthHandler := NewHealthHandler(deps.DB, deps.Improver, nil)

	r := mux.NewRouter()
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Sessions(deps.Sessions, deps.Tokens, deps.Logger))
	r.Use(middleware.RequireLogin(deps.Gate))

	// Public
	r.HandleFunc("/login", authHandler.LoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	r.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		redirect(w, r, "/records/new")
	}).Methods(http.MethodGet)

	// Create
	r.HandleFunc("/records/new", recordHandler.NewRecord).Methods(http.MethodGet)
	r.HandleFunc("/records/new/improve", recordHandler.Improve).Methods(http.MethodPost)
	r.HandleFunc("/records/new/suggestion/accept", recordHandler.AcceptSuggestion).Methods(http.MethodPost)
	r.HandleFunc("/records/new/suggestion/discard", recordHandler.DiscardSuggestion).Methods(http.MethodPost)
	r.HandleFunc("/records", recordHandler.Create).Methods(http.MethodPost)

	// Search
	r.HandleFunc("/records", recordHandler.Search).Methods(http.MethodGet)

	// Edit
	r.HandleFunc("/records/edit", recordHandler.EditList).Methods(http.MethodGet)
	r.HandleFunc("/records/{id:[0-9]+}/edit", recordHandler.Update).Methods(http.MethodPost)

	// Delete
	r.HandleFunc("/records/delete", recordHandler.DeleteList).Methods(http.MethodGet)
	r.HandleFunc("/records/{id:[0-9]+}/delete", recordHandler.Delete).Methods(http.MethodPost)

	return r, nil
}

// NewConfigErrorRouter serves the configuration error on every route so it
// stays visible until the process is restarted with valid settings.
func NewConfigErrorRouter(cfgErr error, logger *zap.Logger) (http.Handler, error) {
	render, err := NewRenderer(logger)
	if err != nil {
		return nil, err
	}
	healthHandler := NewHealthHandler(nil, nil, cfgErr)
	message := apperr.UserMessage(cfgErr)

	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		render.Render(w, http.StatusServiceUnavailable, "config_error",
			page{Title: "Configuration required", Data: message})
	})
	return r, nil
}
