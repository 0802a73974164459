// upload.go - the ingestion-compression-storage pipeline.
package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
)

// maxPasswordLength caps the plaintext password; bcrypt ignores input
// beyond 72 bytes, so longer values would silently truncate.
const maxPasswordLength = 72

const maxFieldBytes = 4096

// uploadOptions are the caller-supplied knobs from the multipart form.
type uploadOptions struct {
	password       string
	retentionHours int
	toCompress     bool
}

// handleUpload accepts a multipart batch (repeatable "file" parts plus
// optional "password", "retention_hours" and "compress" fields), validates
// it, applies the selected compression strategy and commits each resulting
// unit: pending metadata row, blob upload, then the location update that
// marks the row committed. A failure mid-batch leaves earlier commits in
// place; the failing unit's row stays uncommitted and is never retried.
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	units, form, err := a.readBatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(units) == 0 {
		writeError(w, r, fmt.Errorf("%w: no files in request", errBadRequest))
		return
	}

	opts, err := a.parseOptions(form)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := validateBatch(units, a.settings); err != nil {
		writeError(w, r, err)
		return
	}

	strat := selectStrategy(units, opts.toCompress)
	DefaultLogger.Info("strategy_selected", map[string]any{
		"request_id": RequestIDFromContext(r.Context()),
		"strategy":   strat.String(),
		"files":      len(units),
	})

	outUnits, err := a.applyStrategy(r.Context(), strat, units)
	if err != nil {
		writeError(w, r, err)
		return
	}

	committed := make([]filePublic, 0, len(outUnits))
	for _, u := range outUnits {
		f, err := a.storeUnit(r.Context(), u, opts)
		if err != nil {
			// Earlier units stay committed; there is no batch transaction.
			writeError(w, r, err)
			return
		}
		committed = append(committed, f.public())
	}

	writeJSON(w, http.StatusCreated, committed)
}

// readBatch drains the multipart stream into file units and form fields.
// Each file part is read with a one-byte margin over the limit so oversized
// uploads are detected without buffering them whole.
func (a *App) readBatch(r *http.Request) ([]*fileUnit, map[string]string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: expected multipart form data", errBadRequest)
	}

	var units []*fileUnit
	form := make(map[string]string)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: malformed multipart body", errBadRequest)
		}

		if part.FormName() == "file" && part.FileName() != "" {
			name := filepath.Base(part.FileName())
			data, err := io.ReadAll(io.LimitReader(part, a.settings.MaxUploadBytes+1))
			_ = part.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("%w: reading %s", errBadRequest, name)
			}
			if int64(len(data)) > a.settings.MaxUploadBytes {
				return nil, nil, fmt.Errorf("%w: %s, limit is %d bytes",
					errFileTooLarge, name, a.settings.MaxUploadBytes)
			}
			units = append(units, &fileUnit{Name: name, Data: data})
			continue
		}

		val, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
		_ = part.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: malformed multipart body", errBadRequest)
		}
		form[part.FormName()] = string(val)
	}

	return units, form, nil
}

func (a *App) parseOptions(form map[string]string) (uploadOptions, error) {
	opts := uploadOptions{retentionHours: a.settings.DefaultRetentionHours}

	opts.password = form["password"]
	if len(opts.password) > maxPasswordLength {
		return opts, fmt.Errorf("%w: password must not exceed %d characters",
			errBadRequest, maxPasswordLength)
	}

	if raw, ok := form["retention_hours"]; ok && raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			return opts, fmt.Errorf("%w: retention_hours must be a non-negative integer", errBadRequest)
		}
		opts.retentionHours = hours
	}

	if raw, ok := form["compress"]; ok && raw != "" {
		toCompress, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: compress must be true or false", errBadRequest)
		}
		opts.toCompress = toCompress
	}

	return opts, nil
}

// applyStrategy runs the chosen compressor over the batch. Passthrough
// returns the batch unchanged; every other strategy collapses it into a
// single transformed unit.
func (a *App) applyStrategy(ctx context.Context, strat strategy, units []*fileUnit) ([]*fileUnit, error) {
	switch strat {
	case strategyPassthrough:
		return units, nil
	case strategyAnimatedImage:
		u, err := resizeGIF(units[0], a.settings.ImagePercent)
		if err != nil {
			return nil, err
		}
		return []*fileUnit{u}, nil
	case strategyStillImage:
		u, err := resizeImage(units[0], a.settings.ImagePercent)
		if err != nil {
			return nil, err
		}
		return []*fileUnit{u}, nil
	case strategyDocument:
		u, err := a.docs.compress(ctx, units[0])
		if err != nil {
			return nil, err
		}
		if u == nil {
			// The external service failed; upload the original bytes.
			log.Printf("service=upload msg=%q file=%s", "document_compression_skipped", units[0].Name)
			u = units[0]
		}
		return []*fileUnit{u}, nil
	case strategyArchive:
		u, err := archiveFiles(units, a.settings.ArchiveLevel)
		if err != nil {
			return nil, err
		}
		return []*fileUnit{u}, nil
	}
	return nil, fmt.Errorf("unknown strategy %d", strat)
}

// storeUnit commits one unit: reserve the id, finalize the row, upload the
// blob, then set the location. The row's non-empty location is the signal
// that the upload fully succeeded; on blob failure the row is left
// uncommitted for the sweeper to reclaim.
func (a *App) storeUnit(ctx context.Context, u *fileUnit, opts uploadOptions) (*StoredFile, error) {
	f, err := a.store.InsertPending(ctx, u.Name)
	if err != nil {
		return nil, err
	}

	f.StorageKey = fmt.Sprintf("%d-%s", f.ID, u.Name)
	f.ByteSize = u.size()
	f.MimeType = u.ContentType
	f.RetentionHours = opts.retentionHours

	if opts.password != "" {
		hash, err := hashPassword(opts.password, a.settings.BcryptCost)
		if err != nil {
			return nil, err
		}
		f.PasswordHash = hash
	}

	if err := a.store.Finalize(ctx, f); err != nil {
		return nil, err
	}

	location, err := a.blobs.Put(ctx, f.StorageKey, bytes.NewReader(u.Data), u.size(), u.ContentType)
	if err != nil {
		return nil, &upstreamError{file: u.Name, err: err}
	}

	if err := a.store.SetLocation(ctx, f.ID, location); err != nil {
		return nil, err
	}
	f.Location = location

	log.Printf("service=upload msg=%q id=%d key=%s bytes=%d mime=%s",
		"file_committed", f.ID, f.StorageKey, f.ByteSize, f.MimeType)

	return f, nil
}
