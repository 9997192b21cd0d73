package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// MaxJSONBody caps request bodies so a client can't feed us gigabytes.
const MaxJSONBody = 1 << 20 // 1 MiB

// ReadJSON decodes a JSON request body into v, rejecting unknown fields and
// trailing garbage.
func ReadJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// A second token means there's trailing content after the JSON value.
	if dec.More() {
		return errors.New("httpx: unexpected trailing data in request body")
	}
	return nil
}
