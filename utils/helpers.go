package utils

import (
	"strings"
)

// SanitizePathComponent replaces characters that are unsafe in file names.
func SanitizePathComponent(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	s = strings.ReplaceAll(s, "?", "_")
	s = strings.ReplaceAll(s, "\"", "_")
	s = strings.ReplaceAll(s, "<", "_")
	s = strings.ReplaceAll(s, ">", "_")
	s = strings.ReplaceAll(s, "|", "_")
	return s
}

// GetImageExtension returns the file extension for an image MIME type, or ""
// when the type is not an accepted receipt image.
func GetImageExtension(mimetype string) string {
	switch strings.ToLower(strings.TrimSpace(mimetype)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tif"
	case "application/pdf":
		return "pdf"
	default:
		return ""
	}
}

// IsReceiptContentType reports whether a receipt upload of this type is accepted.
func IsReceiptContentType(mimetype string) bool {
	return GetImageExtension(mimetype) != ""
}
