// Package sanitize removes dangerous constructs from documents. Every
// format engine implements Sanitizer; the Dispatcher turns engine output,
// errors and panics into a SanitizationOutcome that is always usable.
package sanitize

import (
	"errors"
	"sort"

	"github.com/IvanShishkin/docsentry/pkg/models"
)

// Engine names reported in outcomes
const (
	EnginePassthrough = "passthrough"
	EnginePDF         = "pdf"
	EngineOOXML       = "ooxml"
	EngineRTF         = "rtf"
)

// NoteUnsupported is attached to passthrough outcomes
const NoteUnsupported = "Unsupported type; original retained"

// ErrEmptyOutput is reported when an engine returns no bytes
var ErrEmptyOutput = errors.New("sanitizer produced empty output")

// Result is what a format engine returns on success
type Result struct {
	Data    []byte
	Removed []string
	Notes   []string
}

// Unchanged returns a result that keeps data as is
func Unchanged(data []byte, notes ...string) *Result {
	return &Result{Data: data, Notes: notes}
}

// Sanitizer is the single interface all format engines implement
type Sanitizer interface {
	// Name returns the engine name
	Name() string

	// Sanitize returns the cleaned bytes or an error. It must not modify data.
	Sanitize(data []byte) (*Result, error)
}

// Registry is the capability table mapping normalized extensions to engines.
// It is filled at start-up and only read afterwards.
type Registry struct {
	byExt map[string]Sanitizer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Sanitizer)}
}

// Register binds s to every extension given
func (r *Registry) Register(s Sanitizer, extensions ...string) {
	for _, ext := range extensions {
		r.byExt[models.CleanExtension(ext)] = s
	}
}

// Lookup returns the engine for ext
func (r *Registry) Lookup(ext string) (Sanitizer, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.byExt[models.CleanExtension(ext)]
	return s, ok
}

// Extensions returns the registered extensions, sorted
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// dedupe returns the sorted distinct values of items
func dedupe(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}
