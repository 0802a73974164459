// pdfcompress.go - document transcoding via an external compression service.
//
// The service is network-dependent and treated as unreliable: any failure
// degrades to "upload the original bytes" and never aborts the request.
package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// documentCompressor calls a Stirling-PDF compatible compress endpoint.
type documentCompressor struct {
	url     string
	quality int
	client  *http.Client
}

func newDocumentCompressor(s Settings) *documentCompressor {
	return &documentCompressor{
		url:     s.PDFServiceURL,
		quality: s.PDFQuality,
		client:  &http.Client{Timeout: s.PDFServiceTimeout},
	}
}

// compress sends the document to the external service. It returns
// (nil, nil) when no compression could be performed: unset service URL,
// transport failure, or a non-success response. Callers fall back to the
// original bytes in that case.
func (c *documentCompressor) compress(ctx context.Context, u *fileUnit) (*fileUnit, error) {
	if c.url == "" {
		return nil, nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("fileInput", u.Name)
	if err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := part.Write(u.Data); err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if err := mw.WriteField("optimizeLevel", strconv.Itoa(c.quality)); err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("service=pdfcompress msg=%q file=%s err=%v", "transport_failed", u.Name, err)
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("service=pdfcompress msg=%q file=%s status=%d", "service_error", u.Name, resp.StatusCode)
		return nil, nil
	}

	compressed, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("service=pdfcompress msg=%q file=%s err=%v", "read_failed", u.Name, err)
		return nil, nil
	}

	log.Printf("service=pdfcompress msg=%q file=%s before=%d after=%d ms=%d",
		"compressed", u.Name, len(u.Data), len(compressed), time.Since(start).Milliseconds())

	return &fileUnit{
		Name:        u.Name,
		ContentType: "application/pdf",
		Data:        compressed,
	}, nil
}
