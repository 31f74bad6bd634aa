package validation

import (
	"fmt"
	"net/http"
)

// ImageTypes are the accepted upload types, detected from content
var ImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// DetectImage checks an upload by its magic number and size and returns the
// detected content type. The client's Content-Type header is never trusted.
func DetectImage(data []byte, maxSize int64) (string, error) {
	if len(data) == 0 {
		return "", Error("image is empty")
	}

	if int64(len(data)) > maxSize {
		maxMB := maxSize / (1 << 20)
		return "", Error(fmt.Sprintf("image too large: maximum size is %d MB", maxMB))
	}

	// http.DetectContentType reads max 512 bytes to determine MIME type
	detected := http.DetectContentType(data)
	if !ImageTypes[detected] {
		return "", Error(fmt.Sprintf("invalid image type (detected: %s)", detected))
	}

	return detected, nil
}
