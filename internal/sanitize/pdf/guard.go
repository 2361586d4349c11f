package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var keywordStream = []byte("stream")
var keywordEndStream = []byte("endstream")

// checkNesting rejects data whose array or dictionary nesting exceeds
// maxDepth. It runs in one pass over the raw bytes and skips comments,
// strings and stream bodies.
func checkNesting(data []byte, maxDepth int) error {
	depth := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case '(':
			i = skipLiteral(data, i)
		case '<':
			if i+1 < len(data) && data[i+1] == '<' {
				i++
				depth++
				if depth > maxDepth {
					return fmt.Errorf("%w: limit %d at offset %d", ErrTooDeep, maxDepth, i)
				}
				continue
			}
			// hex string
			j := bytes.IndexByte(data[i:], '>')
			if j < 0 {
				return nil
			}
			i += j
		case '>':
			if i+1 < len(data) && data[i+1] == '>' {
				i++
				if depth > 0 {
					depth--
				}
			}
		case '[':
			depth++
			if depth > maxDepth {
				return fmt.Errorf("%w: limit %d at offset %d", ErrTooDeep, maxDepth, i)
			}
		case ']':
			if depth > 0 {
				depth--
			}
		case 's':
			if !isStreamKeyword(data, i) {
				continue
			}
			j := bytes.Index(data[i+len(keywordStream):], keywordEndStream)
			if j < 0 {
				return nil
			}
			i += len(keywordStream) + j + len(keywordEndStream) - 1
		}
	}
	return nil
}

// skipLiteral returns the index of the parenthesis closing the literal
// string opened at data[i], or len(data) when it is never closed.
func skipLiteral(data []byte, i int) int {
	level := 0
	for ; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '(':
			level++
		case ')':
			level--
			if level == 0 {
				return i
			}
		}
	}
	return len(data)
}

// isStreamKeyword reports whether data[i:] starts a "stream" token followed
// by an end of line.
func isStreamKeyword(data []byte, i int) bool {
	if !bytes.HasPrefix(data[i:], keywordStream) {
		return false
	}
	if i > 0 && isRegular(data[i-1]) {
		return false
	}
	next := i + len(keywordStream)
	return next < len(data) && (data[next] == '\r' || data[next] == '\n')
}

func isRegular(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0,
		'(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

// checkPageTree walks the intermediate nodes of the page tree and fails on
// a node reached twice or on a tree deeper than maxDepth.
func checkPageTree(ctx *model.Context, maxDepth int) error {
	catalog, err := ctx.Catalog()
	if err != nil {
		return fmt.Errorf("pdf: catalog: %w", err)
	}
	root, found := catalog.Find("Pages")
	if !found {
		return nil
	}
	return walkPages(ctx, root, make(map[int]bool), 0, maxDepth)
}

func walkPages(ctx *model.Context, node types.Object, visited map[int]bool, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: page tree deeper than %d", ErrTooDeep, maxDepth)
	}

	d, err := ctx.DereferenceDict(node)
	if err != nil {
		return fmt.Errorf("pdf: page tree: %w", err)
	}
	if d == nil {
		return nil
	}
	if t := d.Type(); t == nil || *t != "Pages" {
		return nil
	}

	if ref, ok := node.(types.IndirectRef); ok {
		nr := ref.ObjectNumber.Value()
		if visited[nr] {
			return fmt.Errorf("%w: object %d", ErrPageTreeCycle, nr)
		}
		visited[nr] = true
	}

	kids, found := d.Find("Kids")
	if !found {
		return nil
	}
	arr, err := ctx.DereferenceArray(kids)
	if err != nil {
		return fmt.Errorf("pdf: page tree: %w", err)
	}
	for _, kid := range arr {
		if err := walkPages(ctx, kid, visited, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
