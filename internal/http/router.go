package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/muniledger/internal/http/document"
	"github.com/MrJamesThe3rd/muniledger/internal/http/ingest"
	"github.com/MrJamesThe3rd/muniledger/internal/http/staging"
)

type Options struct {
	AllowedOrigins []string
	// Timeout bounds every request except ingest runs, which call the model.
	Timeout time.Duration
}

func New(
	documentsV1 *document.Handler,
	ingestV1 *ingest.Handler,
	stagingV1 *staging.Handler,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	timeout := func(next http.Handler) http.Handler { return next }
	if opts.Timeout > 0 {
		timeout = middleware.Timeout(opts.Timeout)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.With(timeout).Group(documentsV1.Routes)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				ingestV1.Routes(r)
			})
		})

		r.Route("/staging", func(r chi.Router) {
			r.Use(timeout)
			r.Use(middleware.AllowContentType("application/json"))
			stagingV1.Routes(r)
		})
	})

	return router
}
