// Package pdf removes automatic actions and embedded files from PDF documents.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/IvanShishkin/docsentry/internal/sanitize"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Removal tags
const (
	RemovedOpenAction    = "OpenAction"
	RemovedEmbeddedFiles = "EmbeddedFiles"
	RemovedPageAA        = "Page.AA"
	RemovedCatalogAA     = "AA"
	RemovedJavaScript    = "JavaScript"
)

var (
	// ErrTooDeep is returned when array or dictionary nesting exceeds the limit
	ErrTooDeep = errors.New("pdf: object nesting too deep")
	// ErrPageTreeCycle is returned when a page tree node is reachable twice
	ErrPageTreeCycle = errors.New("pdf: page tree revisits a node")
)

// DefaultMaxDepth bounds array and dictionary nesting when none is configured
const DefaultMaxDepth = 256

func init() {
	api.DisableConfigDir()
}

// Sanitizer is the PDF engine
type Sanitizer struct {
	maxDepth int
}

// New creates a PDF sanitizer that rejects array and dictionary nesting
// deeper than maxDepth
func New(maxDepth int) *Sanitizer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Sanitizer{maxDepth: maxDepth}
}

// Name returns the engine name
func (s *Sanitizer) Name() string { return sanitize.EnginePDF }

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// Sanitize parses data, drops the catalog open action and additional
// actions, the embedded file and JavaScript name trees and every page-level
// additional action, then re-serializes the document. Clock-derived
// trailer and info values are pinned so equal input gives equal output.
func (s *Sanitizer) Sanitize(data []byte) (*sanitize.Result, error) {
	if err := checkNesting(data, s.maxDepth); err != nil {
		return nil, err
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), configuration())
	if err != nil {
		return nil, fmt.Errorf("pdf: read: %w", err)
	}

	removed, err := strip(ctx)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return sanitize.Unchanged(data), nil
	}

	// the writer recurses over /Kids without a guard
	if err := checkPageTree(ctx, s.maxDepth); err != nil {
		return nil, err
	}

	hadID := ctx.ID != nil
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("pdf: write: %w", err)
	}

	out := buf.Bytes()
	pinVolatile(out, ctx, data, hadID)
	return &sanitize.Result{Data: out, Removed: removed}, nil
}

func strip(ctx *model.Context) ([]string, error) {
	seen := make(map[string]bool)

	catalog, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("pdf: catalog: %w", err)
	}

	if deleteKey(catalog, "OpenAction") {
		seen[RemovedOpenAction] = true
	}
	if deleteKey(catalog, "AA") {
		seen[RemovedCatalogAA] = true
	}

	if obj, found := catalog.Find("Names"); found {
		names, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("pdf: names: %w", err)
		}
		if names != nil {
			if deleteKey(names, "EmbeddedFiles") {
				seen[RemovedEmbeddedFiles] = true
			}
			if deleteKey(names, "JavaScript") {
				seen[RemovedJavaScript] = true
			}
		}
	}

	for _, entry := range ctx.Table {
		if entry == nil || entry.Free {
			continue
		}
		d, ok := entry.Object.(types.Dict)
		if !ok {
			continue
		}
		if t := d.Type(); t == nil || *t != "Page" {
			continue
		}
		if deleteKey(d, "AA") {
			seen[RemovedPageAA] = true
		}
	}

	removed := make([]string, 0, len(seen))
	for tag := range seen {
		removed = append(removed, tag)
	}
	sort.Strings(removed)
	return removed, nil
}

func deleteKey(d types.Dict, key string) bool {
	if _, found := d.Find(key); !found {
		return false
	}
	d.Delete(key)
	return true
}
