// errors.go - error taxonomy and the single place it maps to HTTP statuses.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
)

// Sentinel errors for client-visible failure classes. Handlers wrap these
// with %w plus detail, and writeError maps them to status codes exactly once.
var (
	errNotFound             = errors.New("file not found")
	errAuthRequired         = errors.New("password is required to access this file")
	errAuthMismatch         = errors.New("incorrect password")
	errUnsupportedType      = errors.New("invalid file type")
	errUnsupportedExtension = errors.New("invalid file extension")
	errFileTooLarge         = errors.New("file exceeds the maximum allowed size")
	errBadRequest           = errors.New("bad request")
	errCompression          = errors.New("compression failed")
	errEmptyBatch           = errors.New("no files provided for compression")
)

// upstreamError marks a blob store or external service failure and names
// the file that was being processed when it happened.
type upstreamError struct {
	file string
	err  error
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("failed to store %s: %v", e.file, e.err)
}

func (e *upstreamError) Unwrap() error { return e.err }

type errorResp struct {
	Error string `json:"error"`
}

// writeError translates an error into an HTTP response. Validation and auth
// failures surface their message verbatim; everything unrecognized becomes
// an opaque 500 so internal detail never leaks.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *upstreamError

	switch {
	case errors.Is(err, errNotFound):
		writeJSON(w, http.StatusNotFound, errorResp{Error: err.Error()})
	case errors.Is(err, errAuthRequired),
		errors.Is(err, errAuthMismatch),
		errors.Is(err, errUnsupportedType),
		errors.Is(err, errUnsupportedExtension),
		errors.Is(err, errFileTooLarge),
		errors.Is(err, errCompression),
		errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusBadGateway, errorResp{Error: upstream.Error()})
	default:
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=%q err=%v", rid, "internal_error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "internal error"})
	}
}
