package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds every environment-derived knob the service consumes.
// Values outside their documented bounds silently fall back to the default
// rather than failing startup; structurally broken required settings are
// caught separately by ValidateSettings.
type Settings struct {
	Addr        string
	DatabaseURL string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	Bucket      string

	// MaxUploadBytes limits the size of a single uploaded file.
	MaxUploadBytes int64

	// ImagePercent scales image dimensions during compression, 1-99.
	ImagePercent int

	// PDFQuality is the optimize level sent to the document service, 1-5.
	PDFQuality int

	// ArchiveLevel is the deflate level used for zip archives, 1-9.
	ArchiveLevel int

	BcryptCost            int
	DefaultRetentionHours int

	SweepInterval time.Duration

	PDFServiceURL     string
	PDFServiceTimeout time.Duration

	AllowedMimeTypes  []string
	AllowedExtensions []string
}

// Default allow-lists: archives, common images, office documents and PDF.
// application/x-cfb covers legacy DOC/XLS containers.
var (
	defaultAllowedMimeTypes = []string{
		"application/zip",
		"application/x-7z-compressed",
		"application/x-rar-compressed",
		"image/jpeg",
		"image/png",
		"image/gif",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel",
		"application/pdf",
		"application/x-cfb",
	}
	defaultAllowedExtensions = []string{
		"zip", "7z", "rar",
		"jpg", "jpeg", "png", "gif",
		"docx", "doc", "xlsx", "xls", "pdf",
	}
)

// LoadSettings reads configuration from FR_* environment variables,
// applying defaults and bounds clamping.
func LoadSettings() Settings {
	return Settings{
		Addr:        getenvDefault("FR_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		S3Endpoint:  os.Getenv("FR_S3_ENDPOINT"),
		S3AccessKey: os.Getenv("FR_S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("FR_S3_SECRET_KEY"),
		Bucket:      os.Getenv("FR_BUCKET"),

		MaxUploadBytes: envInt64("FR_MAX_UPLOAD_BYTES", 50*1024*1024),

		ImagePercent: envIntBounded("FR_IMAGE_COMPRESSION", 10, 1, 99),
		PDFQuality:   envIntBounded("FR_PDF_COMPRESSION", 5, 1, 5),
		ArchiveLevel: envIntBounded("FR_ARCHIVE_COMPRESSION", 9, 1, 9),

		BcryptCost:            envIntBounded("FR_BCRYPT_COST", 12, 4, 31),
		DefaultRetentionHours: envIntBounded("FR_DEFAULT_RETENTION_HOURS", 24, 0, 24*365),

		SweepInterval: envDuration("FR_SWEEP_INTERVAL", time.Minute),

		PDFServiceURL:     os.Getenv("FR_PDF_SERVICE_URL"),
		PDFServiceTimeout: envDuration("FR_PDF_SERVICE_TIMEOUT", 30*time.Second),

		AllowedMimeTypes:  envList("FR_ALLOWED_MIME_TYPES", defaultAllowedMimeTypes),
		AllowedExtensions: envList("FR_ALLOWED_EXTENSIONS", defaultAllowedExtensions),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// envIntBounded parses an integer environment variable and returns def when
// the value is missing, unparsable, or outside [min, max].
func envIntBounded(key string, def, min, max int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// envList parses a comma-separated environment variable, trimming blanks.
func envList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
