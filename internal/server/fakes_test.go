package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"sync"
	"time"
)

// fakeStore is an in-memory MetadataStore for handler tests.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*StoredFile
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, rows: make(map[int64]*StoredFile)}
}

func (s *fakeStore) InsertPending(ctx context.Context, originalName string) (*StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &StoredFile{
		ID:             s.nextID,
		OriginalName:   originalName,
		CreatedAt:      time.Now().UTC(),
		RetentionHours: 24,
	}
	s.nextID++
	cp := *f
	s.rows[f.ID] = &cp
	return f, nil
}

func (s *fakeStore) Finalize(ctx context.Context, f *StoredFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[f.ID]
	if !ok {
		return fmt.Errorf("finalize: row %d missing", f.ID)
	}
	row.StorageKey = f.StorageKey
	row.ByteSize = f.ByteSize
	row.MimeType = f.MimeType
	row.RetentionHours = f.RetentionHours
	row.PasswordHash = f.PasswordHash
	return nil
}

func (s *fakeStore) SetLocation(ctx context.Context, id int64, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return fmt.Errorf("set location: row %d missing", id)
	}
	row.Location = location
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id int64) (*StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *fakeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, row := range s.rows {
		if row.expiresAt().Before(now) {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// row returns a copy of a stored row for assertions.
func (s *fakeStore) row(id int64) (StoredFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[id]; ok {
		return *r, true
	}
	return StoredFile{}, false
}

// fakeBlobs is an in-memory BlobStore. Set putErr to simulate an object
// store outage.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return "http://blobs.test/bucket/" + key, nil
}

func (b *fakeBlobs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBlobs) object(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	return data, ok
}

// testSettings returns settings with default allow-lists and a cheap
// bcrypt cost so tests stay fast.
func testSettings() Settings {
	return Settings{
		Addr:                  ":0",
		MaxUploadBytes:        10 * 1024 * 1024,
		ImagePercent:          10,
		PDFQuality:            5,
		ArchiveLevel:          9,
		BcryptCost:            4,
		DefaultRetentionHours: 24,
		SweepInterval:         time.Minute,
		PDFServiceTimeout:     5 * time.Second,
		AllowedMimeTypes:      defaultAllowedMimeTypes,
		AllowedExtensions:     defaultAllowedExtensions,
	}
}

// makePNG encodes a solid-color PNG of the given dimensions.
func makePNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// makeGIF encodes an animated GIF with the given frame count.
func makeGIF(width, height, frames int) []byte {
	palette := color.Palette{color.Black, color.White}
	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, width, height), palette)
		for x := 0; x < width; x++ {
			frame.SetColorIndex(x, 0, uint8((x+i)%2))
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10*(i+1))
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
