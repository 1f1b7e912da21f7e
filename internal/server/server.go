// Package server exposes the operation set over HTTP as a chi router.
// Every response body is JSON; error kinds map onto HTTP status codes in
// one place so handlers never pick statuses themselves.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/danielss-dev/dbfordevs/internal/export"
	"github.com/danielss-dev/dbfordevs/internal/service"
)

// Server wires the service and the optional exporter into an http.Handler.
type Server struct {
	svc      *service.Service
	exporter *export.Exporter // nil when export is disabled
	log      zerolog.Logger
}

// New builds a Server. exporter may be nil; the export endpoint then
// reports that export is not configured.
func New(svc *service.Service, exporter *export.Exporter, log zerolog.Logger) *Server {
	return &Server{
		svc:      svc,
		exporter: exporter,
		log:      log.With().Str("component", "server").Logger(),
	}
}

// Router returns the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/connections", func(r chi.Router) {
		r.Post("/test", s.handleTestConnection)
		r.Get("/", s.handleListConnections)

		r.Route("/{connectionID}", func(r chi.Router) {
			r.Put("/", s.handleConnect)
			r.Delete("/", s.handleDisconnect)
			r.Get("/status", s.handleStatus)
			r.Post("/query", s.handleQuery)
			r.Post("/export", s.handleExport)

			r.Route("/tables", func(r chi.Router) {
				r.Get("/", s.handleListTables)

				r.Route("/{table}", func(r chi.Router) {
					r.Delete("/", s.handleDropTable)
					r.Get("/schema", s.handleTableSchema)
					r.Get("/properties", s.handleTableProperties)
					r.Get("/relationships", s.handleTableRelationships)
					r.Get("/indexes", s.handleTableIndexes)
					r.Get("/constraints", s.handleTableConstraints)
					r.Get("/ddl", s.handleTableDDL)
					r.Post("/rename", s.handleRenameTable)
					r.Post("/rows", s.handleInsertRow)
					r.Put("/rows", s.handleUpdateRow)
					r.Delete("/rows", s.handleDeleteRow)
				})
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
