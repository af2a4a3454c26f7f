package httpapi

import (
	"net/http"

	"duplex/internal/filestore"
	"duplex/internal/logging"
	"duplex/pkg/domain"
	ws "duplex/pkg/transport/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// RouterOptions represents HTTP router dependencies
type RouterOptions struct {
	Hub       domain.Hub
	Websocket *ws.Server
	Files     *filestore.Service
	Logger    *logging.Logger
}

// statsProvider is implemented by hubs that expose activity counters.
type statsProvider interface {
	Stats() domain.HubStats
}

// NewRouter wires the REST and websocket endpoints.
func NewRouter(opts RouterOptions) *chi.Mux {
	validate := validator.New()

	messages := NewMessageHandler(opts.Hub, opts.Logger, validate)
	files := NewFileHandler(opts.Hub, opts.Files, opts.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(contextLogger(opts.Logger))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "duplex is running"})
	})

	if hub, ok := opts.Hub.(statsProvider); ok {
		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, hub.Stats())
		})
	}

	r.Get("/ws/{userID}", func(w http.ResponseWriter, req *http.Request) {
		opts.Websocket.ServeUser(w, req, chi.URLParam(req, "userID"))
	})

	r.Get("/files/*", files.Serve)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)

		r.Post("/chats/{chatID}/messages", messages.Send)
		r.Put("/chats/messages/read", messages.MarkRead)

		r.Post("/chats/{chatID}/files", files.Upload)
		r.Get("/chats/{chatID}/files", files.List)
		r.Delete("/files/{fileID}", files.Delete)
	})

	return r
}

// contextLogger stores the application logger in each request context so
// middleware below it can log without threading the dependency.
func contextLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
		})
	}
}
