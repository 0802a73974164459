// download.go - password-gated retrieval of stored files and their metadata.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// authorize looks up the record and enforces the password gate. Records
// whose upload never completed (empty location) do not exist as far as
// callers are concerned.
func (a *App) authorize(ctx context.Context, id int64, password string) (*StoredFile, error) {
	f, err := a.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if f.PasswordHash != "" {
		if password == "" {
			return nil, errAuthRequired
		}
		if !verifyPassword(password, f.PasswordHash) {
			return nil, errAuthMismatch
		}
	}

	if f.Location == "" {
		return nil, errNotFound
	}

	return f, nil
}

// handleDownload streams the blob back with the original filename as the
// suggested download name, regardless of any renaming that happened during
// compression. A client disconnect cancels the request context and stops
// the copy.
func (a *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := parseFileID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	f, err := a.authorize(r.Context(), id, r.URL.Query().Get("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	obj, err := a.blobs.Get(r.Context(), f.StorageKey)
	if err != nil {
		writeError(w, r, &upstreamError{file: f.OriginalName, err: err})
		return
	}
	defer func() { _ = obj.Close() }()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(f.OriginalName)))
	if f.ByteSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.ByteSize, 10))
	}
	w.WriteHeader(http.StatusOK)

	_, _ = io.Copy(w, obj)
}

// handleInfo returns the metadata projection under the same password gate
// as content retrieval. The password hash and soft-delete flag are never
// part of the response.
func (a *App) handleInfo(w http.ResponseWriter, r *http.Request) {
	id, err := parseFileID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	f, err := a.authorize(r.Context(), id, r.URL.Query().Get("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, f.public())
}

func parseFileID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", errBadRequest)
	}
	return id, nil
}
