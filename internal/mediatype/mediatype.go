// Package mediatype resolves the media type recorded for a submitted file.
package mediatype

import (
	"strings"

	"github.com/IvanShishkin/docsentry/pkg/models"
	"github.com/gabriel-vasile/mimetype"
)

// Default is used when nothing else is known
const Default = "application/octet-stream"

var byExtension = map[string]string{
	"pdf":  "application/pdf",
	"rtf":  "application/rtf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"dotx": "application/vnd.openxmlformats-officedocument.wordprocessingml.template",
	"docm": "application/vnd.ms-word.document.macroEnabled.12",
	"dotm": "application/vnd.ms-word.template.macroEnabled.12",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xltx": "application/vnd.openxmlformats-officedocument.spreadsheetml.template",
	"xlsm": "application/vnd.ms-excel.sheet.macroEnabled.12",
	"xltm": "application/vnd.ms-excel.template.macroEnabled.12",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"ppsx": "application/vnd.openxmlformats-officedocument.presentationml.slideshow",
	"potx": "application/vnd.openxmlformats-officedocument.presentationml.template",
	"pptm": "application/vnd.ms-powerpoint.presentation.macroEnabled.12",
	"ppsm": "application/vnd.ms-powerpoint.slideshow.macroEnabled.12",
	"potm": "application/vnd.ms-powerpoint.template.macroEnabled.12",
}

// ForExtension returns the registered media type for ext, or ""
func ForExtension(ext string) string {
	return byExtension[models.CleanExtension(ext)]
}

// Resolve picks the caller-declared type, then the type registered for the
// filename extension, then content sniffing
func Resolve(filename, declared string, data []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	if mt := ForExtension(models.NormalizeExtension(filename)); mt != "" {
		return mt
	}
	if len(data) == 0 {
		return Default
	}
	return mimetype.Detect(data).String()
}
