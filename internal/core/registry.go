package core

import (
	"github.com/IvanShishkin/docsentry/internal/config"
	"github.com/IvanShishkin/docsentry/internal/sanitize"
	"github.com/IvanShishkin/docsentry/internal/sanitize/ooxml"
	"github.com/IvanShishkin/docsentry/internal/sanitize/pdf"
	"github.com/IvanShishkin/docsentry/internal/sanitize/rtf"
	"github.com/IvanShishkin/docsentry/pkg/models"
)

// NewRegistry builds the sanitizer capability table for the configured limits
func NewRegistry(cfg config.SanitizerConfig) *sanitize.Registry {
	reg := sanitize.NewRegistry()

	reg.Register(pdf.New(cfg.PDFMaxDepth), "pdf")
	reg.Register(rtf.New(cfg.RTFMaxDepth), "rtf")

	limits := ooxml.Limits{
		MaxEntries:   cfg.ZipMaxEntries,
		MaxEntrySize: cfg.ZipMaxEntrySize,
		MaxTotalSize: cfg.ZipMaxTotalSize,
	}
	engines := map[models.Subtype]*ooxml.Sanitizer{
		models.SubtypeWord:  ooxml.New(models.SubtypeWord, limits),
		models.SubtypeSheet: ooxml.New(models.SubtypeSheet, limits),
		models.SubtypeSlide: ooxml.New(models.SubtypeSlide, limits),
	}
	for _, ext := range models.OOXMLExtensions() {
		reg.Register(engines[models.SubtypeOf(ext)], ext)
	}

	return reg
}
