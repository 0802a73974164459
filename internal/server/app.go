// app.go - ties the pipeline components together behind HTTP handlers.
package server

import (
	"context"
	"encoding/json"
	"net/http"
)

// App owns the upload/retrieval orchestration. Storage capabilities are
// injected as interfaces so tests can run against in-memory fakes.
type App struct {
	settings Settings
	store    MetadataStore
	blobs    BlobStore
	docs     *documentCompressor

	// ready probes downstream dependencies for the readiness endpoint.
	// Optional; nil means the process reports ready as soon as it serves.
	ready func(ctx context.Context) error
}

func NewApp(settings Settings, store MetadataStore, blobs BlobStore, ready func(ctx context.Context) error) *App {
	return &App{
		settings: settings,
		store:    store,
		blobs:    blobs,
		docs:     newDocumentCompressor(settings),
		ready:    ready,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
