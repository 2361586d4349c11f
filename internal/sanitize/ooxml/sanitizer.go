// Package ooxml strips VBA macro projects from Office Open XML packages.
// The same logic serves word, sheet and slide documents; the subtype tag
// only selects the application-specific macro parts.
package ooxml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/IvanShishkin/docsentry/internal/sanitize"
	"github.com/IvanShishkin/docsentry/pkg/models"
	"github.com/klauspost/compress/zip"
)

var (
	// ErrTooManyEntries is returned when the archive exceeds the entry limit
	ErrTooManyEntries = errors.New("ooxml: too many archive entries")
	// ErrEntryTooLarge is returned when one entry inflates past the limit
	ErrEntryTooLarge = errors.New("ooxml: archive entry too large")
	// ErrTotalTooLarge is returned when all entries together inflate past the limit
	ErrTotalTooLarge = errors.New("ooxml: archive too large")
	// ErrUnknownSubtype is returned for a missing subtype tag
	ErrUnknownSubtype = errors.New("ooxml: unknown subtype")
)

// Removal tags besides removed part names
const (
	RemovedRelationships = "relationships"
	RemovedContentTypes  = "content_types"
)

const contentTypesPart = "[Content_Types].xml"

var (
	relationshipRe = regexp.MustCompile(`(?s)<Relationship\b[^>]*?(?:/>|>.*?</Relationship>)`)
	overrideRe     = regexp.MustCompile(`(?s)<Override\b[^>]*?/>`)
	defaultRe      = regexp.MustCompile(`(?s)<Default\b[^>]*?/>`)
	typeAttrRe     = regexp.MustCompile(`\bType\s*=\s*["']([^"']*)["']`)
	targetAttrRe   = regexp.MustCompile(`\bTarget\s*=\s*["']([^"']*)["']`)
	partNameAttrRe = regexp.MustCompile(`\bPartName\s*=\s*["']([^"']*)["']`)
	contentAttrRe  = regexp.MustCompile(`\bContentType\s*=\s*["']([^"']*)["']`)
)

// Limits bounds the work done on one archive
type Limits struct {
	MaxEntries   int
	MaxEntrySize int64
	MaxTotalSize int64
}

// Sanitizer is the OOXML engine for one subtype
type Sanitizer struct {
	subtype models.Subtype
	limits  Limits
}

// New creates an OOXML sanitizer for subtype
func New(subtype models.Subtype, limits Limits) *Sanitizer {
	return &Sanitizer{subtype: subtype, limits: limits}
}

// Name returns the engine name
func (s *Sanitizer) Name() string { return sanitize.EngineOOXML }

// isMacroPart reports whether name is a VBA project part for the subtype
func (s *Sanitizer) isMacroPart(name string) bool {
	lower := strings.ToLower(name)
	for _, seg := range strings.Split(path.Dir(lower), "/") {
		if seg == "vba" {
			return true
		}
	}
	base := path.Base(lower)
	if strings.HasPrefix(base, "vbaproject") {
		return true
	}
	if s.subtype == models.SubtypeWord && strings.HasPrefix(base, "vbadata.xml") {
		return true
	}
	return false
}

// isMacroType reports whether a relationship or content type refers to VBA
func isMacroType(t string) bool {
	t = strings.ToLower(t)
	return strings.Contains(t, "vbaproject") || strings.HasSuffix(t, "/wordvbadata") || strings.Contains(t, "vbadata")
}

// Sanitize rebuilds the archive without macro parts, their relationships
// and their content-type declarations
func (s *Sanitizer) Sanitize(data []byte) (*sanitize.Result, error) {
	switch s.subtype {
	case models.SubtypeWord, models.SubtypeSheet, models.SubtypeSlide:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubtype, s.subtype)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("ooxml: open archive: %w", err)
	}
	if s.limits.MaxEntries > 0 && len(zr.File) > s.limits.MaxEntries {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyEntries, len(zr.File), s.limits.MaxEntries)
	}

	var removed []string
	removedBases := make(map[string]bool)
	for _, f := range zr.File {
		if s.isMacroPart(f.Name) {
			removed = append(removed, f.Name)
			removedBases[strings.ToLower(path.Base(f.Name))] = true
		}
	}

	var (
		buf          bytes.Buffer
		total        int64
		relsChanged  bool
		typesChanged bool
	)
	zw := zip.NewWriter(&buf)

	for _, f := range zr.File {
		if s.isMacroPart(f.Name) {
			continue
		}

		content, err := s.readEntry(f)
		if err != nil {
			return nil, err
		}
		total += int64(len(content))
		if s.limits.MaxTotalSize > 0 && total > s.limits.MaxTotalSize {
			return nil, fmt.Errorf("%w: more than %d bytes", ErrTotalTooLarge, s.limits.MaxTotalSize)
		}

		switch {
		case strings.HasSuffix(strings.ToLower(f.Name), ".rels"):
			if out, changed := filterRelationships(content, removedBases); changed {
				content = out
				relsChanged = true
			}
		case f.Name == contentTypesPart:
			if out, changed := filterContentTypes(content, removedBases); changed {
				content = out
				typesChanged = true
			}
		}

		if err := writeEntry(zw, f, content); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("ooxml: finalize archive: %w", err)
	}

	if len(removed) == 0 && !relsChanged && !typesChanged {
		return sanitize.Unchanged(data), nil
	}
	if relsChanged {
		removed = append(removed, RemovedRelationships)
	}
	if typesChanged {
		removed = append(removed, RemovedContentTypes)
	}

	return &sanitize.Result{
		Data:    buf.Bytes(),
		Removed: removed,
		Notes:   []string{"subtype " + string(s.subtype)},
	}, nil
}

// readEntry inflates one entry within the size limit
func (s *Sanitizer) readEntry(f *zip.File) ([]byte, error) {
	limit := s.limits.MaxEntrySize
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%w: %s declares %d bytes", ErrEntryTooLarge, f.Name, f.UncompressedSize64)
	}

	if f.FileInfo().IsDir() {
		return nil, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("ooxml: open %s: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ooxml: read %s: %w", f.Name, err)
	}
	if limit > 0 && int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: %s inflates past %d bytes", ErrEntryTooLarge, f.Name, limit)
	}
	return content, nil
}

func writeEntry(zw *zip.Writer, f *zip.File, content []byte) error {
	method := f.Method
	if method != zip.Store {
		method = zip.Deflate
	}
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     f.Name,
		Method:   method,
		Modified: f.Modified,
		Comment:  f.Comment,
	})
	if err != nil {
		return fmt.Errorf("ooxml: write %s: %w", f.Name, err)
	}
	if f.FileInfo().IsDir() {
		return nil
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("ooxml: write %s: %w", f.Name, err)
	}
	return nil
}

// filterRelationships drops relationships of a VBA type or pointing at a
// removed part
func filterRelationships(content []byte, removedBases map[string]bool) ([]byte, bool) {
	changed := false
	out := relationshipRe.ReplaceAllFunc(content, func(rel []byte) []byte {
		if m := typeAttrRe.FindSubmatch(rel); m != nil && isMacroType(string(m[1])) {
			changed = true
			return nil
		}
		if m := targetAttrRe.FindSubmatch(rel); m != nil {
			if removedBases[strings.ToLower(path.Base(string(m[1])))] {
				changed = true
				return nil
			}
		}
		return rel
	})
	if !changed {
		return content, false
	}
	return out, true
}

// filterContentTypes drops declarations for removed parts and the VBA
// project content type
func filterContentTypes(content []byte, removedBases map[string]bool) ([]byte, bool) {
	changed := false

	out := overrideRe.ReplaceAllFunc(content, func(decl []byte) []byte {
		if m := contentAttrRe.FindSubmatch(decl); m != nil && isMacroType(string(m[1])) {
			changed = true
			return nil
		}
		if m := partNameAttrRe.FindSubmatch(decl); m != nil {
			if removedBases[strings.ToLower(path.Base(string(m[1])))] {
				changed = true
				return nil
			}
		}
		return decl
	})

	out = defaultRe.ReplaceAllFunc(out, func(decl []byte) []byte {
		if m := contentAttrRe.FindSubmatch(decl); m != nil && isMacroType(string(m[1])) {
			changed = true
			return nil
		}
		return decl
	})

	if !changed {
		return content, false
	}
	return out, true
}
