package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mcoot/mindgym/internal/api/apierr"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 64 << 10

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeBody decodes a bounded JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewInvalidRequestError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
