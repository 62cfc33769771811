package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/grantledger/internal/http/attachment"
	"github.com/MrJamesThe3rd/grantledger/internal/http/export"
	"github.com/MrJamesThe3rd/grantledger/internal/http/importsheet"
	"github.com/MrJamesThe3rd/grantledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/grantledger/internal/http/matching"
	"github.com/MrJamesThe3rd/grantledger/internal/http/middleware"
)

type Options struct {
	Log            zerolog.Logger
	AllowedOrigins []string
	Timeout        time.Duration
	// JWTSecret enables bearer-token auth on every API route when set.
	JWTSecret string
}

type Handlers struct {
	Ledger   *ledger.Handler
	Import   *importsheet.Handler
	Matching *matching.Handler
	Export   *export.Handler
	// Attachments is nil unless proofs are served by this API.
	Attachments *attachment.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(middleware.Logger(opts.Log))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.Timeout > 0 {
		router.Use(chimiddleware.Timeout(opts.Timeout))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(middleware.Auth([]byte(opts.JWTSecret)))
		}

		r.Route("/grants/{grantID}", func(r chi.Router) {
			r.Route("/import", h.Import.Routes)
			r.Route("/export", h.Export.Routes)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.AllowContentType("application/json"))
				h.Ledger.GrantRoutes(r)
			})
		})

		r.Route("/items", h.Ledger.ItemRoutes)
		r.Route("/transactions", h.Ledger.TransactionRoutes)
		r.Route("/matching", h.Matching.Routes)

		if h.Attachments != nil {
			r.Route("/attachments", h.Attachments.Routes)
		}
	})

	return router
}
