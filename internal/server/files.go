// files.go - the StoredFile metadata record and its Postgres store.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StoredFile is the durable metadata record for one stored object. A row
// with an empty Location is an in-flight or failed upload and is never
// served to clients; Location is set exactly once, after the blob upload
// succeeds.
type StoredFile struct {
	ID                int64
	OriginalName      string
	StorageKey        string
	Location          string
	PasswordHash      string
	CreatedAt         time.Time
	RetentionHours    int
	ByteSize          int64
	MimeType          string
	MarkedForDeletion bool
}

// expiresAt is the absolute instant after which the record may be purged.
func (f *StoredFile) expiresAt() time.Time {
	return f.CreatedAt.Add(time.Duration(f.RetentionHours) * time.Hour)
}

// filePublic is the externally visible projection of a StoredFile. The
// password hash and the soft-delete flag are never exposed.
type filePublic struct {
	ID             int64     `json:"id"`
	OriginalName   string    `json:"original_name"`
	Location       string    `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	RetentionHours int       `json:"retention_hours"`
	ByteSize       int64     `json:"byte_size"`
	MimeType       string    `json:"mime_type"`
	Protected      bool      `json:"protected"`
}

func (f *StoredFile) public() filePublic {
	return filePublic{
		ID:             f.ID,
		OriginalName:   f.OriginalName,
		Location:       f.Location,
		CreatedAt:      f.CreatedAt,
		RetentionHours: f.RetentionHours,
		ByteSize:       f.ByteSize,
		MimeType:       f.MimeType,
		Protected:      f.PasswordHash != "",
	}
}

// MetadataStore is the persistence capability the upload and retrieval
// paths depend on. Each method touches a single row; no multi-row
// transactions exist anywhere in the pipeline.
type MetadataStore interface {
	// InsertPending creates a row holding only the original name,
	// reserving the id. Everything else is filled in by Finalize.
	InsertPending(ctx context.Context, originalName string) (*StoredFile, error)
	// Finalize writes storage key, size, mime type, retention and the
	// optional password hash in one row update.
	Finalize(ctx context.Context, f *StoredFile) error
	// SetLocation marks the row as fully committed.
	SetLocation(ctx context.Context, id int64, location string) error
	FindByID(ctx context.Context, id int64) (*StoredFile, error)
	// DeleteExpired removes every row whose retention window predates now
	// and returns the number of rows deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// FileStore implements MetadataStore on Postgres.
type FileStore struct {
	db *sql.DB
}

func NewFileStore(db *sql.DB) *FileStore {
	return &FileStore{db: db}
}

func (s *FileStore) InsertPending(ctx context.Context, originalName string) (*StoredFile, error) {
	f := &StoredFile{OriginalName: originalName}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO files (original_name) VALUES ($1) RETURNING id, created_at, retention_hours`,
		originalName,
	).Scan(&f.ID, &f.CreatedAt, &f.RetentionHours)
	if err != nil {
		return nil, fmt.Errorf("insert pending file: %w", err)
	}
	return f, nil
}

func (s *FileStore) Finalize(ctx context.Context, f *StoredFile) error {
	var hash sql.NullString
	if f.PasswordHash != "" {
		hash = sql.NullString{String: f.PasswordHash, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE files
		 SET storage_key = $2, byte_size = $3, mime_type = $4,
		     retention_hours = $5, password_hash = $6
		 WHERE id = $1`,
		f.ID, f.StorageKey, f.ByteSize, f.MimeType, f.RetentionHours, hash,
	)
	if err != nil {
		return fmt.Errorf("finalize file %d: %w", f.ID, err)
	}
	return nil
}

func (s *FileStore) SetLocation(ctx context.Context, id int64, location string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE files SET location = $2 WHERE id = $1`,
		id, location,
	)
	if err != nil {
		return fmt.Errorf("set location for file %d: %w", id, err)
	}
	return nil
}

func (s *FileStore) FindByID(ctx context.Context, id int64) (*StoredFile, error) {
	f := &StoredFile{}
	var storageKey, location, mimeType sql.NullString
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, original_name, storage_key, location, password_hash,
		        created_at, retention_hours, byte_size, mime_type, marked_for_deletion
		 FROM files WHERE id = $1`,
		id,
	).Scan(&f.ID, &f.OriginalName, &storageKey, &location, &hash,
		&f.CreatedAt, &f.RetentionHours, &f.ByteSize, &mimeType, &f.MarkedForDeletion)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("find file %d: %w", id, err)
	}
	f.StorageKey = storageKey.String
	f.Location = location.String
	f.PasswordHash = hash.String
	f.MimeType = mimeType.String
	return f, nil
}

func (s *FileStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM files
		 WHERE created_at + retention_hours * interval '1 hour' < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired files: %w", err)
	}
	return res.RowsAffected()
}
