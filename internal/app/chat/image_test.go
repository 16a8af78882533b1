package chat

import (
	"encoding/base64"
	"strings"
	"testing"

	"dmchat/internal/pkg/errs"
)

func TestValidateFileSize(t *testing.T) {
	tests := []struct {
		name     string
		fileSize int64
		wantCode int
	}{
		{"zero size", 0, errs.ErrInvalidParams},
		{"negative size", -1, errs.ErrInvalidParams},
		{"one byte", 1, 0},
		{"exactly at limit", MaxImageSize, 0},
		{"one byte over limit", MaxImageSize + 1, errs.ErrFileSizeTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFileSize(tc.fileSize)
			if tc.wantCode == 0 {
				if err != nil {
					t.Fatalf("ValidateFileSize(%d) = %v, want nil", tc.fileSize, err)
				}
				return
			}
			if err == nil || err.Code != tc.wantCode {
				t.Fatalf("ValidateFileSize(%d) = %v, want code %d", tc.fileSize, err, tc.wantCode)
			}
		})
	}
}

func TestValidateFileType(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		wantOK   bool
	}{
		{"jpeg", "photo.jpg", "image/jpeg", true},
		{"jpeg alt extension", "photo.jpeg", "image/jpeg", true},
		{"png", "cat.png", "image/png", true},
		{"webp", "sticker.webp", "image/webp", true},
		{"uppercase mime", "photo.jpg", "IMAGE/JPEG", true},
		{"disallowed mime", "doc.pdf", "application/pdf", false},
		{"mismatched extension", "photo.png", "image/jpeg", false},
		{"no extension", "photo", "image/jpeg", false},
		{"svg not allowed", "icon.svg", "image/svg+xml", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFileType(tc.fileName, tc.mimeType)
			if tc.wantOK && err != nil {
				t.Fatalf("ValidateFileType(%q, %q) = %v, want nil", tc.fileName, tc.mimeType, err)
			}
			if !tc.wantOK && err == nil {
				t.Fatalf("ValidateFileType(%q, %q) = nil, want error", tc.fileName, tc.mimeType)
			}
		})
	}
}

func TestParseImageDataURL(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	encoded := base64.StdEncoding.EncodeToString(raw)

	mimeType, got, err := ParseImageDataURL("data:image/png;base64," + encoded)
	if err != nil {
		t.Fatalf("valid data URL rejected: %v", err)
	}
	if mimeType != "image/png" {
		t.Fatalf("mime = %q, want image/png", mimeType)
	}
	if string(got) != string(raw) {
		t.Fatalf("decoded bytes = %v, want %v", got, raw)
	}
}

func TestParseImageDataURLRejections(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("x"))

	tests := []struct {
		name     string
		dataURL  string
		wantCode int
	}{
		{"missing data prefix", "image/png;base64," + encoded, errs.ErrAttachmentInvalid},
		{"missing base64 marker", "data:image/png," + encoded, errs.ErrAttachmentInvalid},
		{"disallowed mime", "data:application/pdf;base64," + encoded, errs.ErrAttachmentInvalid},
		{"bad base64", "data:image/png;base64,!!!not-base64!!!", errs.ErrAttachmentInvalid},
		{"empty payload", "data:image/png;base64,", errs.ErrAttachmentInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseImageDataURL(tc.dataURL)
			if err == nil || err.Code != tc.wantCode {
				t.Fatalf("ParseImageDataURL(%q) err = %v, want code %d", tc.dataURL, err, tc.wantCode)
			}
		})
	}
}

func TestParseImageDataURLSizeLimit(t *testing.T) {
	oversized := base64.StdEncoding.EncodeToString(make([]byte, MaxImageSize+1))

	_, _, err := ParseImageDataURL("data:image/jpeg;base64," + oversized)
	if err == nil || err.Code != errs.ErrFileSizeTooLarge {
		t.Fatalf("oversized image err = %v, want code %d", err, errs.ErrFileSizeTooLarge)
	}
}

func TestExtForMIME(t *testing.T) {
	tests := []struct {
		mimeType string
		want     string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"image/webp", ".webp"},
		{"image/gif", ".gif"},
		{"IMAGE/PNG", ".png"},
		{"application/pdf", ""},
	}

	for _, tc := range tests {
		if got := ExtForMIME(tc.mimeType); got != tc.want {
			t.Errorf("ExtForMIME(%q) = %q, want %q", tc.mimeType, got, tc.want)
		}
	}
}

func TestExtToMIMEAgreesWithAllowedTypes(t *testing.T) {
	for ext, mimeType := range ExtToMIME {
		if !strings.HasPrefix(ext, ".") {
			t.Errorf("extension %q missing leading dot", ext)
		}
		if _, ok := AllowedMIMETypes[mimeType]; !ok {
			t.Errorf("extension %q maps to disallowed MIME %q", ext, mimeType)
		}
	}
}
