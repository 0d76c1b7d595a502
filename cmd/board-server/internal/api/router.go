package api

import (
	"net/http"
	"time"

	"github.com/coregx/board"
	"github.com/coregx/board/model"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Handler *Handler
	Auth    *Authenticator

	// WebSocket and EventStream are the observer endpoints; nil skips them.
	WebSocket   http.Handler
	EventStream http.Handler

	AllowedOrigins []string
	Logger         board.Logger
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) http.Handler {
	h, auth := cfg.Handler, cfg.Auth
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Identify)

	api.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)

	// AddComment must be registered ahead of the numeric {id} routes.
	api.HandleFunc("/topics/AddComment", auth.RequireUser(h.SubmitComment)).Methods(http.MethodPost)
	api.HandleFunc("/topics", h.ListTopics).Methods(http.MethodGet)
	api.HandleFunc("/topics", auth.RequireUser(h.CreateTopic)).Methods(http.MethodPost)
	api.HandleFunc("/topics/{id:[0-9]+}", h.GetTopic).Methods(http.MethodGet)
	api.HandleFunc("/topics/{id:[0-9]+}", auth.RequireRole(model.RoleAdministrator, h.UpdateTopic)).Methods(http.MethodPut)
	api.HandleFunc("/topics/{id:[0-9]+}", auth.RequireRole(model.RoleAdministrator, h.DeleteTopic)).Methods(http.MethodDelete)
	api.HandleFunc("/topics/{id:[0-9]+}/comments", h.ListComments).Methods(http.MethodGet)

	api.HandleFunc("/topictypes", h.ListTopicTypes).Methods(http.MethodGet)
	api.HandleFunc("/topictypes", auth.RequireRole(model.RoleAdministrator, h.CreateTopicType)).Methods(http.MethodPost)

	api.HandleFunc("/favorites", auth.RequireUser(h.ListFavorites)).Methods(http.MethodGet)
	api.HandleFunc("/favorites/{topicId:[0-9]+}", auth.RequireUser(h.AddFavorite)).Methods(http.MethodPut)
	api.HandleFunc("/favorites/{topicId:[0-9]+}", auth.RequireUser(h.RemoveFavorite)).Methods(http.MethodDelete)

	if cfg.WebSocket != nil {
		router.Handle("/hubs/comments", cfg.WebSocket).Methods(http.MethodGet)
	}
	if cfg.EventStream != nil {
		router.Handle("/hubs/comments/stream", cfg.EventStream).Methods(http.MethodGet)
	}

	var handler http.Handler = router
	if len(cfg.AllowedOrigins) > 0 {
		handler = cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Location"},
			AllowCredentials: false,
			MaxAge:           300,
		})(handler)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = &board.NoopLogger{}
	}
	return loggingMiddleware(handler, logger)
}

// loggingMiddleware logs each request.
func loggingMiddleware(next http.Handler, logger board.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Infof("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		logger.Debugf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}
