package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
	"github.com/danielss-dev/dbfordevs/internal/export"
)

// handleTestConnection checks reachability of the posted configuration.
// A failed round trip is still a 200 — the body carries success:false.
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	var cfg db.ConnectionConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.svc.TestConnection(r.Context(), &cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "connectionID")

	var cfg db.ConnectionConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, err)
		return
	}

	if err := s.svc.Connect(r.Context(), id, &cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"connectionId": id})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.svc.Disconnect(chi.URLParam(r, "connectionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "connectionID")
	writeJSON(w, http.StatusOK, map[string]bool{"connected": s.svc.IsConnected(id)})
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"connections": s.svc.ListConnections()})
}

// queryRequest is the body of the query and export endpoints.
type queryRequest struct {
	SQL    string  `json:"sql"`
	Limit  *int    `json:"limit"`
	Offset *int    `json:"offset"`
	Format *string `json:"format"` // export only
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "connectionID")

	var req queryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.SQL == "" {
		writeError(w, errs.New(errs.KindInvalidInput, "sql must not be empty"))
		return
	}

	result, err := s.svc.ExecuteQuery(r.Context(), id, req.SQL, req.Limit, req.Offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleExport runs a query and uploads the result to the object store.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, errs.New(errs.KindInvalidConfig, "export is not configured"))
		return
	}
	id := chi.URLParam(r, "connectionID")

	var req queryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.SQL == "" {
		writeError(w, errs.New(errs.KindInvalidInput, "sql must not be empty"))
		return
	}

	format := export.FormatCSV
	if req.Format != nil {
		parsed, err := export.ParseFormat(*req.Format)
		if err != nil {
			writeError(w, err)
			return
		}
		format = parsed
	}

	result, err := s.svc.ExecuteQuery(r.Context(), id, req.SQL, req.Limit, req.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	exported, err := s.exporter.Export(r.Context(), result, format)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exported)
}
