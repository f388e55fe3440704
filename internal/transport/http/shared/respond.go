// Package shared holds the response helpers every handler uses, so error
// bodies and content types stay uniform across the API surface.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	derrors "rosterd/pkg/domain-errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status. Encoding failures are swallowed;
// by then the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates a domain error into its HTTP shape. Errors without a
// domain code come out as 500 with a generic message so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	message := derrors.MessageOf(err)
	var de *derrors.Error
	if !errors.As(err, &de) {
		message = "internal error"
	}
	WriteJSON(w, derrors.HTTPStatus(code), errorBody{
		Error:   string(code),
		Message: message,
	})
}
