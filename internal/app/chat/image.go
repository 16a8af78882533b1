package chat

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"time"

	"dmchat/internal/pkg/errs"
)

const (
	// MaxImageSizeMB is the maximum allowed image size in megabytes.
	MaxImageSizeMB = 5

	// MaxImageSize is the maximum allowed image size in bytes.
	MaxImageSize = MaxImageSizeMB * 1024 * 1024

	// MaxTextBytes is the maximum allowed size (in bytes) for message text.
	MaxTextBytes = 5000

	// PresignedURLDuration is the fixed duration for which a presigned
	// upload or download URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes defines the set of permitted MIME types for message and avatar images.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxImageSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks if the provided file name and MIME type are allowed
// and agree with each other.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrAttachmentInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) < 2 {
		return errs.NewError(errs.ErrAttachmentInvalid)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok {
		return errs.NewError(errs.ErrAttachmentInvalid)
	}

	if expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrAttachmentInvalid)
	}

	return nil
}

// ParseImageDataURL decodes a base64 image data URL of the form
// "data:image/png;base64,...." and returns the MIME type and raw bytes.
// Size and type limits are enforced on the decoded content.
func ParseImageDataURL(dataURL string) (string, []byte, *errs.CustomError) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	mimeType, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	mimeType = strings.ToLower(mimeType)
	if _, allowed := AllowedMIMETypes[mimeType]; !allowed {
		return "", nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	if len(raw) == 0 {
		return "", nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	if len(raw) > MaxImageSize {
		return "", nil, errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return mimeType, raw, nil
}

// ExtForMIME returns the canonical file extension for an allowed MIME type.
func ExtForMIME(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
