// SPDX-License-Identifier: MIT

// Package api is the HTTP adapter: thin handlers that parse a request,
// call into the core and serialise the result. Error kinds map to
// status codes through one table.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/log"
)

// kindStatus is the single kind-to-status table. Anything unlisted is a
// 500.
var kindStatus = map[core.Kind]int{
	core.KindInvalidArgument:       http.StatusBadRequest,
	core.KindNotFound:              http.StatusNotFound,
	core.KindConflict:              http.StatusConflict,
	core.KindAdmissionDenied:       http.StatusTooManyRequests,
	core.KindPreconditionFailed:    http.StatusPreconditionFailed,
	core.KindDependencyUnavailable: http.StatusInternalServerError,
	core.KindTransientIO:           http.StatusServiceUnavailable,
	core.KindInternal:              http.StatusInternalServerError,
}

func statusForError(err error) int {
	if s, ok := kindStatus[core.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// errorBody is the uniform error envelope: a short class plus a
// free-form message.
type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	body := errorBody{
		Error:   http.StatusText(status),
		Message: err.Error(),
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		body.Message = ce.Message
		body.Details = ce.Details
	}
	if status >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).
			Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, body)
}

// decodeJSON parses the request body into v. An empty body is an error;
// handlers with optional bodies check ContentLength first.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return core.InvalidArgumentf("invalid JSON body: %v", err)
	}
	return nil
}
