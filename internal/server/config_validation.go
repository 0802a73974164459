// config_validation.go - startup validation of environment-derived settings.
//
// Fails fast with a complete list of problems instead of dying on the first
// missing variable at runtime.
package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ConfigValidationError describes one invalid setting.
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ConfigValidator accumulates validation errors across all settings.
type ConfigValidator struct {
	errors []ConfigValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{errors: make([]ConfigValidationError, 0)}
}

func (v *ConfigValidator) AddError(field, message string) {
	v.errors = append(v.errors, ConfigValidationError{Field: field, Message: message})
}

func (v *ConfigValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// ErrorString formats every accumulated error, one per line.
func (v *ConfigValidator) ErrorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):\n", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

func (v *ConfigValidator) validateRequired(field, value string) {
	if value == "" {
		v.AddError(field, "required setting is not set")
	}
}

func (v *ConfigValidator) validateURL(field, value string) {
	if value == "" {
		return
	}
	parsed, err := url.Parse(value)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		v.AddError(field, "URL must use http or https scheme")
	}
}

func (v *ConfigValidator) validateAddr(field, value string) {
	if value == "" {
		return
	}
	portStr := value
	if i := strings.LastIndex(value, ":"); i >= 0 {
		portStr = value[i+1:]
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		v.AddError(field, "listen address must end in a numeric port")
		return
	}
	if port < 1 || port > 65535 {
		v.AddError(field, "port must be between 1 and 65535")
	}
}

// ValidateSettings checks the structurally required parts of Settings.
// Bounded numeric knobs are already clamped by LoadSettings and never fail.
func ValidateSettings(s Settings) error {
	v := NewConfigValidator()

	v.validateRequired("DATABASE_URL", s.DatabaseURL)
	v.validateRequired("FR_S3_ENDPOINT", s.S3Endpoint)
	v.validateRequired("FR_S3_ACCESS_KEY", s.S3AccessKey)
	v.validateRequired("FR_S3_SECRET_KEY", s.S3SecretKey)
	v.validateRequired("FR_BUCKET", s.Bucket)

	v.validateAddr("FR_ADDR", s.Addr)
	v.validateURL("FR_PDF_SERVICE_URL", s.PDFServiceURL)

	if len(s.AllowedMimeTypes) == 0 {
		v.AddError("FR_ALLOWED_MIME_TYPES", "allow-list must not be empty")
	}
	if len(s.AllowedExtensions) == 0 {
		v.AddError("FR_ALLOWED_EXTENSIONS", "allow-list must not be empty")
	}

	if v.HasErrors() {
		return fmt.Errorf("%s", v.ErrorString())
	}
	return nil
}
