// Package server exposes locations over HTTP: a JSON API under /api/v1 and a
// server-rendered listing at /.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sells-group/evmap/internal/store"
)

// Options configures the HTTP handler.
type Options struct {
	CORSOrigins []string
}

// Server holds the handler dependencies.
type Server struct {
	store    store.Store
	validate *validator.Validate
	opts     Options
}

// New creates a Server backed by st.
func New(st store.Store, opts Options) *Server {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{
		store:    st,
		validate: validator.New(),
		opts:     opts,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", tokenHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/", s.index)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/types", s.listTypes)

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", s.listLocations)
			r.Get("/{id}", s.getLocation)

			r.Group(func(r chi.Router) {
				r.Use(s.requireToken)
				r.Post("/", s.createLocation)
				r.Put("/{id}", s.updateLocation)
				r.Delete("/{id}", s.deleteLocation)
			})
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}
