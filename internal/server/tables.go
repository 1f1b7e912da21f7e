package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

func tableParams(r *http.Request) (connectionID, table string) {
	return chi.URLParam(r, "connectionID"), chi.URLParam(r, "table")
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "connectionID")
	tables, err := s.svc.GetTables(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleTableSchema(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)
	schema, err := s.svc.GetTableSchema(r.Context(), id, table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleTableProperties(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)
	props, err := s.svc.GetTableProperties(r.Context(), id, table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) handleTableRelationships(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)
	rels, err := s.svc.GetTableRelationships(r.Context(), id, table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"relationships": rels})
}

func (s *Server) handleTableIndexes(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)
	indexes, err := s.svc.GetIndexes(r.Context(), id, table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexes": indexes})
}

func (s *Server) handleTableConstraints(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)
	constraints, err := s.svc.GetConstraints(r.Context(), id, table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"constraints": constraints})
}

func (s *Server) handleTableDDL(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)
	ddl, err := s.svc.GenerateTableDDL(r.Context(), id, table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ddl": ddl})
}

func (s *Server) handleRenameTable(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)

	var req struct {
		NewName string `json:"newName"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.NewName == "" {
		writeError(w, errs.New(errs.KindInvalidInput, "newName must not be empty"))
		return
	}

	result, err := s.svc.RenameTable(r.Context(), id, table, req.NewName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)
	result, err := s.svc.DropTable(r.Context(), id, table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInsertRow(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)

	var req struct {
		Values map[string]any `json:"values"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.svc.InsertRow(r.Context(), id, table, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)

	var req struct {
		PrimaryKeyColumn string         `json:"primaryKeyColumn"`
		PrimaryKeyValue  any            `json:"primaryKeyValue"`
		Updates          map[string]any `json:"updates"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PrimaryKeyColumn == "" {
		writeError(w, errs.New(errs.KindInvalidInput, "primaryKeyColumn must not be empty"))
		return
	}

	result, err := s.svc.UpdateRow(r.Context(), id, table, req.PrimaryKeyColumn, req.PrimaryKeyValue, req.Updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	id, table := tableParams(r)

	var req struct {
		PrimaryKeyColumn string `json:"primaryKeyColumn"`
		PrimaryKeyValue  any    `json:"primaryKeyValue"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PrimaryKeyColumn == "" {
		writeError(w, errs.New(errs.KindInvalidInput, "primaryKeyColumn must not be empty"))
		return
	}

	result, err := s.svc.DeleteRow(r.Context(), id, table, req.PrimaryKeyColumn, req.PrimaryKeyValue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
