// Package httpapi implements gutensearch's HTTP surface for the ingestor,
// indexer, and searcher roles: a thin per-role handler dispatching to a
// narrowly scoped backing type, registered on a chi router rather than a
// bare http.ServeMux.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/mterris/gutensearch/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope, mapping err to a status
// code via errs.Status.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errs.Status(err), map[string]string{"error": err.Error()})
}
