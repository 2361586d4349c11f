// Package rtf neutralizes embedded objects, fields and object-update
// control words in RTF documents while keeping the surrounding text.
package rtf

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/IvanShishkin/docsentry/internal/sanitize"
)

var (
	// ErrUnbalanced is returned for unmatched group braces
	ErrUnbalanced = errors.New("rtf: unbalanced group braces")
	// ErrTooDeep is returned when group nesting exceeds the limit
	ErrTooDeep = errors.New("rtf: group nesting too deep")
	// ErrNotRTF is returned when the header is missing
	ErrNotRTF = errors.New("rtf: missing {\\rtf header")
)

// Removal tags
const (
	RemovedObject    = "object"
	RemovedField     = "field"
	RemovedObjUpdate = "objupdate"
)

// control words cut wherever they appear outside removed groups
var cutWords = map[string]string{
	"objupdate":  RemovedObjUpdate,
	"objautlink": RemovedObject,
	"objlink":    RemovedObject,
}

// Sanitizer is the RTF engine
type Sanitizer struct {
	maxDepth int
}

// New creates an RTF sanitizer that rejects nesting deeper than maxDepth
func New(maxDepth int) *Sanitizer {
	if maxDepth <= 0 {
		maxDepth = 4096
	}
	return &Sanitizer{maxDepth: maxDepth}
}

// Name returns the engine name
func (s *Sanitizer) Name() string { return sanitize.EngineRTF }

// Sanitize rewrites data without object and field groups. Field groups are
// replaced by their result text and object groups by their result picture.
func (s *Sanitizer) Sanitize(data []byte) (*sanitize.Result, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(`{\rtf`)) {
		return nil, ErrNotRTF
	}

	doc, err := parse(data, s.maxDepth)
	if err != nil {
		return nil, err
	}

	e := &emitter{doc: doc, removed: make(map[string]bool)}
	e.emitRange(0, len(data), doc.root.children)

	if len(e.removed) == 0 {
		return sanitize.Unchanged(data), nil
	}

	removed := make([]string, 0, len(e.removed))
	for tag := range e.removed {
		removed = append(removed, tag)
	}
	sort.Strings(removed)

	return &sanitize.Result{Data: e.out.Bytes(), Removed: removed}, nil
}

// group is one {...} span of the source
type group struct {
	start     int    // offset of '{'
	end       int    // offset after '}'
	word      string // destination control word, "" if the group opens with text
	bodyStart int    // offset after the destination control word
	children  []*group
	pending   bool // no token seen yet besides \*
}

// cut is a source span dropped from the output
type cut struct {
	start, end int
	tag        string
}

type document struct {
	src  []byte
	root *group
	cuts []cut
}

// parse builds the group tree with an explicit stack
func parse(src []byte, maxDepth int) (*document, error) {
	doc := &document{src: src, root: &group{start: 0, end: len(src)}}
	stack := []*group{doc.root}

	n := len(src)
	for i := 0; i < n; {
		top := stack[len(stack)-1]

		switch c := src[i]; c {
		case '{':
			if len(stack) > maxDepth {
				return nil, fmt.Errorf("%w: limit %d at offset %d", ErrTooDeep, maxDepth, i)
			}
			top.pending = false
			g := &group{start: i, bodyStart: i + 1, pending: true}
			top.children = append(top.children, g)
			stack = append(stack, g)
			i++

		case '}':
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: unexpected '}' at offset %d", ErrUnbalanced, i)
			}
			top.end = i + 1
			stack = stack[:len(stack)-1]
			i++

		case '\\':
			i = doc.control(top, i)

		case '\r', '\n':
			i++

		default:
			top.pending = false
			i++
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: %d group(s) left open", ErrUnbalanced, len(stack)-1)
	}
	return doc, nil
}

// control consumes the control word or symbol at i and returns the next offset
func (d *document) control(g *group, i int) int {
	src := d.src
	n := len(src)
	if i+1 >= n {
		return n
	}

	next := src[i+1]
	switch {
	case isLetter(next):
		j := i + 1
		for j < n && isLetter(src[j]) {
			j++
		}
		word := string(bytes.ToLower(src[i+1 : j]))

		k := j
		if k < n && src[k] == '-' {
			k++
		}
		for k < n && src[k] >= '0' && src[k] <= '9' {
			k++
		}
		param := string(src[j:k])

		end := k
		if end < n && src[end] == ' ' {
			end++
		}

		if g.pending {
			g.pending = false
			g.word = word
			g.bodyStart = end
		}

		if tag, ok := cutWords[word]; ok {
			d.cuts = append(d.cuts, cut{start: i, end: end, tag: tag})
		}

		if word == "bin" {
			if size, err := strconv.Atoi(param); err == nil && size > 0 {
				if size > n-end {
					return n
				}
				end += size
			}
		}
		return end

	case next == '\'':
		if i+4 > n {
			return n
		}
		g.pending = false
		return i + 4

	case next == '*':
		return i + 2

	default:
		g.pending = false
		return i + 2
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (g *group) child(word string) *group {
	for _, c := range g.children {
		if c.word == word {
			return c
		}
	}
	return nil
}

type emitter struct {
	doc     *document
	out     bytes.Buffer
	removed map[string]bool
}

// emitRange writes src[a:b], replacing the given child groups
func (e *emitter) emitRange(a, b int, children []*group) {
	pos := a
	for _, ch := range children {
		if ch.start < pos || ch.end > b {
			continue
		}
		e.copy(pos, ch.start)
		e.emitGroup(ch)
		pos = ch.end
	}
	e.copy(pos, b)
}

func (e *emitter) emitGroup(g *group) {
	switch g.word {
	case "object":
		e.removed[RemovedObject] = true
		e.emitBody(g.child("result"))
	case "objdata":
		e.removed[RemovedObject] = true
	case "field":
		e.removed[RemovedField] = true
		e.emitBody(g.child("fldrslt"))
	case "fldinst":
		e.removed[RemovedField] = true
	default:
		e.emitRange(g.start, g.end, g.children)
	}
}

// emitBody writes the content of a result group in its own scope
func (e *emitter) emitBody(g *group) {
	if g == nil {
		return
	}
	e.out.WriteByte('{')
	e.emitRange(g.bodyStart, g.end-1, g.children)
	e.out.WriteByte('}')
}

// copy writes src[a:b] minus any cut spans
func (e *emitter) copy(a, b int) {
	if a >= b {
		return
	}
	cuts := e.doc.cuts
	idx := sort.Search(len(cuts), func(i int) bool { return cuts[i].end > a })

	pos := a
	for ; idx < len(cuts) && cuts[idx].start < b; idx++ {
		c := cuts[idx]
		if c.start < pos {
			continue
		}
		e.out.Write(e.doc.src[pos:c.start])
		e.removed[c.tag] = true
		pos = min(c.end, b)
	}
	if pos < b {
		e.out.Write(e.doc.src[pos:b])
	}
}
