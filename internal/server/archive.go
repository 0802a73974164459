// archive.go - zip archiving of an upload batch.
package server

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// archiveFiles streams every file in the batch into one deflate-compressed
// zip at the given level (1-9). A single-file batch is named
// "{originalName}.zip"; anything else becomes "archive.zip". The declared
// size is the exact byte length of the produced archive.
func archiveFiles(units []*fileUnit, level int) (*fileUnit, error) {
	if len(units) == 0 {
		return nil, errEmptyBatch
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, u := range units {
		w, err := zw.Create(u.Name)
		if err != nil {
			return nil, fmt.Errorf("add %s to archive: %w", u.Name, err)
		}
		if _, err := w.Write(u.Data); err != nil {
			return nil, fmt.Errorf("write %s to archive: %w", u.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	name := "archive.zip"
	if len(units) == 1 {
		name = units[0].Name + ".zip"
	}

	return &fileUnit{
		Name:        name,
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}
