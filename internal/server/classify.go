// classify.go - content classification and allow-list enforcement.
//
// Every file is checked twice: the sniffed (magic byte) content type against
// the MIME allow-list, and the declared filename's extension against the
// extension allow-list. Either check alone is spoofable; together they are
// much harder to fool.
package server

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffContentType detects the true content type of a payload from its
// bytes, ignoring whatever the client declared.
func sniffContentType(data []byte) *mimetype.MIME {
	return mimetype.Detect(data)
}

// matchAllowedMime returns the allow-list entry the detected type matches,
// or "" if none. mimetype.MIME.Is understands aliases (e.g. x-rar vs
// x-rar-compressed), so the comparison is not a plain string equality.
func matchAllowedMime(detected *mimetype.MIME, allowed []string) string {
	for _, t := range allowed {
		if detected.Is(t) {
			return t
		}
	}
	return ""
}

// validateBatch checks size, sniffed content type and filename extension for
// every file in the batch. The first failing file aborts the whole batch;
// nothing is partially accepted. On success each unit's ContentType is
// overwritten with the canonical sniffed type.
func validateBatch(units []*fileUnit, s Settings) error {
	for _, u := range units {
		if u.size() > s.MaxUploadBytes {
			return fmt.Errorf("%w: %s is %d bytes, limit is %d",
				errFileTooLarge, u.Name, u.size(), s.MaxUploadBytes)
		}

		detected := sniffContentType(u.Data)
		matched := matchAllowedMime(detected, s.AllowedMimeTypes)
		if matched == "" {
			return fmt.Errorf("%w: detected %s for %s; allowed types are: %s",
				errUnsupportedType, detected.String(), u.Name,
				strings.Join(s.AllowedMimeTypes, ", "))
		}

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Name)), ".")
		if !extensionAllowed(ext, s.AllowedExtensions) {
			return fmt.Errorf("%w: %q on %s; allowed extensions are: %s",
				errUnsupportedExtension, ext, u.Name,
				strings.Join(s.AllowedExtensions, ", "))
		}

		u.ContentType = matched
	}
	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}
