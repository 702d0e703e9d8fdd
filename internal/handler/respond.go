package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// writeJSON encodes v with the given status. Encoding failures are logged,
// the status line has already been sent by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON tolerates an empty body, mirroring clients that POST without
// one. Malformed JSON is an error.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
