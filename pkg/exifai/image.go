package exifai

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// Image is a file found while walking a directory tree.
type Image struct {
	InPath  string
	RelPath string
	ModTime time.Time
	Size    int64
}

// Ext returns the lowercased extension without the leading dot.
func (i *Image) Ext() string {
	return extOf(i.InPath)
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// mimeType guesses the MIME type of path from its extension.
func mimeType(path string) string {
	switch extOf(path) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "heic":
		return "image/heic"
	case "tif", "tiff":
		return "image/tiff"
	}
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
