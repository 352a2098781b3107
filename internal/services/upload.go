package services

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"dubber/internal/models"
)

// DefaultMaxUploadBytes is the largest accepted upload (5 GiB).
const DefaultMaxUploadBytes int64 = 5 << 30

// DefaultAllowedExtensions lists the accepted video container extensions.
var DefaultAllowedExtensions = []string{"mp4", "avi", "mkv", "mov", "flv", "webm"}

// UploadPolicy bounds what the ingestion path accepts.
type UploadPolicy struct {
	MaxSizeBytes      int64
	AllowedExtensions []string
}

// DefaultUploadPolicy returns the stock limits.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{MaxSizeBytes: DefaultMaxUploadBytes, AllowedExtensions: DefaultAllowedExtensions}
}

// UploadParams describes one file submitted for dubbing.
type UploadParams struct {
	FileName       string
	ContentType    string
	Size           int64
	Body           io.Reader
	TargetLanguage string
	OptionsJSON    string
}

// ValidateUpload checks params against the policy. Checks run in a fixed
// order and the first failure wins.
func (p UploadPolicy) ValidateUpload(params UploadParams) error {
	if params.Size <= 0 || params.Body == nil {
		return models.ValidationError(models.CodeFileEmpty, "File is empty")
	}
	if !p.allowed(params.FileName) {
		return models.ValidationError(models.CodeInvalidFileType,
			"Invalid file type. Allowed: "+strings.Join(p.extensions(), ", "))
	}
	if p.MaxSizeBytes > 0 && params.Size > p.MaxSizeBytes {
		return &models.Error{
			Sentinel: models.ErrValidation,
			Code:     models.CodeFileTooLarge,
			Message:  "File too large. Maximum size is " + formatSize(p.MaxSizeBytes),
			Details: map[string]string{
				"maxSize":      formatSize(p.MaxSizeBytes),
				"uploadedSize": fmt.Sprintf("%.2fMB", float64(params.Size)/(1<<20)),
			},
		}
	}
	if strings.TrimSpace(params.TargetLanguage) == "" {
		return models.ValidationError(models.CodeMissingTargetLanguage, "targetLang is required")
	}
	if _, err := models.NormalizeOptions(params.OptionsJSON); err != nil {
		return err
	}
	return nil
}

func (p UploadPolicy) extensions() []string {
	if len(p.AllowedExtensions) == 0 {
		return DefaultAllowedExtensions
	}
	return p.AllowedExtensions
}

func (p UploadPolicy) allowed(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, a := range p.extensions() {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return true
		}
	}
	return false
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<30 && n%(1<<30) == 0:
		return fmt.Sprintf("%dGB", n>>30)
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
