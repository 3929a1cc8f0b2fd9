package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

// IsDataURI reports whether value looks like an inline base64 image.
func IsDataURI(value string) bool {
	return strings.HasPrefix(value, "data:")
}

// ParseDataURI decodes "data:<type>;base64,<payload>".
func ParseDataURI(value string) (contentType string, data []byte, err error) {
	if !IsDataURI(value) {
		return "", nil, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(value, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, ErrInvalidDataURI
	}

	contentType = strings.TrimSuffix(header, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidDataURI
	}
	return contentType, data, nil
}

// Extension maps an image content type to a file extension.
func Extension(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
