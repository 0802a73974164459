package server

import (
	"errors"
	"testing"
)

func TestSniffContentTypeIgnoresFilename(t *testing.T) {
	data := makePNG(4, 4)
	detected := sniffContentType(data)
	if !detected.Is("image/png") {
		t.Errorf("expected image/png, got %s", detected.String())
	}
}

func TestValidateBatch(t *testing.T) {
	s := testSettings()

	tests := []struct {
		name    string
		units   []*fileUnit
		wantErr error
	}{
		{
			name:  "valid png",
			units: []*fileUnit{{Name: "photo.png", Data: makePNG(4, 4)}},
		},
		{
			name:    "content not in allow-list",
			units:   []*fileUnit{{Name: "notes.pdf", Data: []byte("just some text, not a pdf")}},
			wantErr: errUnsupportedType,
		},
		{
			name:    "extension not in allow-list despite valid content",
			units:   []*fileUnit{{Name: "payload.exe", Data: makePNG(4, 4)}},
			wantErr: errUnsupportedExtension,
		},
		{
			name:    "no extension",
			units:   []*fileUnit{{Name: "README", Data: makePNG(4, 4)}},
			wantErr: errUnsupportedExtension,
		},
		{
			name: "one bad file rejects the whole batch",
			units: []*fileUnit{
				{Name: "good.png", Data: makePNG(4, 4)},
				{Name: "bad.exe", Data: makePNG(4, 4)},
			},
			wantErr: errUnsupportedExtension,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBatch(tt.units, s)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateBatchSetsSniffedContentType(t *testing.T) {
	s := testSettings()
	u := &fileUnit{Name: "photo.png", ContentType: "application/pdf", Data: makePNG(4, 4)}

	if err := validateBatch([]*fileUnit{u}, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ContentType != "image/png" {
		t.Errorf("expected sniffed type image/png to replace declared type, got %s", u.ContentType)
	}
}

func TestValidateBatchSizeLimit(t *testing.T) {
	s := testSettings()
	s.MaxUploadBytes = 16

	err := validateBatch([]*fileUnit{{Name: "big.png", Data: makePNG(32, 32)}}, s)
	if !errors.Is(err, errFileTooLarge) {
		t.Errorf("expected %v, got %v", errFileTooLarge, err)
	}
}
