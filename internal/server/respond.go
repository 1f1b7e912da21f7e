package server

import (
	"encoding/json"
	"net/http"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error kind onto an HTTP status. The mapping lives here
// and nowhere else.
func writeError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindInvalidInput, errs.KindInvalidConfig, errs.KindQueryFailed, errs.KindUnsupportedDialect:
		status = http.StatusBadRequest
	case errs.KindPermissionDenied:
		status = http.StatusForbidden
	case errs.KindConnectionFailed:
		status = http.StatusBadGateway
	case errs.KindTimeout:
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, errorBody{Error: errorDetail{
		Kind:    kind.String(),
		Message: err.Error(),
	}})
}

// decode reads the request body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.KindInvalidInput, "invalid request body", err)
	}
	return nil
}
