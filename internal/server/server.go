// Package server is the reference review backend: the HTTP contract the
// examflux CLI talks to, backed by the item store, the similarity service,
// and an optional generator.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/examflux/examflux/internal/genai"
	"github.com/examflux/examflux/internal/server/storage"
	"github.com/examflux/examflux/internal/similarity"
)

// listLimit caps the item listing, newest first.
const listLimit = 50

// Server routes the review API.
type Server struct {
	store  *storage.Store
	sim    *similarity.Service
	gen    genai.Generator // nil when generation is not configured
	router chi.Router
}

// New wires the router. corsOrigins lists the browser origins allowed to
// call the API; an empty list disables CORS handling.
func New(store *storage.Store, sim *similarity.Service, gen genai.Generator, corsOrigins []string) *Server {
	s := &Server{store: store, sim: sim, gen: gen}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Route("/api/items", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Post("/generate", s.handleGenerate)
		r.Get("/{itemID}/similar", s.handleSimilar)
		r.Post("/{itemID}/approve", s.handleApprove)
		r.Post("/{itemID}/reject", s.handleReject)
		r.Post("/cart", s.handleCart)
		r.Post("/cart/commit", s.handleCommit)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
