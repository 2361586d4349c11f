package pdf

import (
	"regexp"
	"strconv"
)

// NameDecoder replaces #xx escapes inside PDF names, so /J#61vaScript
// reads as /JavaScript
type NameDecoder struct {
	namePattern   *regexp.Regexp
	escapePattern *regexp.Regexp
}

// NewNameDecoder creates a new PDF name decoder
func NewNameDecoder() *NameDecoder {
	return &NameDecoder{
		// A name token that carries at least one escape
		namePattern:   regexp.MustCompile(`/[^\s/\[\]()<>{}%]*#[0-9A-Fa-f]{2}[^\s/\[\]()<>{}%]*`),
		escapePattern: regexp.MustCompile(`#([0-9A-Fa-f]{2})`),
	}
}

// Name returns the deobfuscator name
func (d *NameDecoder) Name() string {
	return "pdf_name_escapes"
}

// CanDeobfuscate checks if content holds an escaped name
func (d *NameDecoder) CanDeobfuscate(content string) bool {
	return d.namePattern.MatchString(content)
}

// Deobfuscate decodes every escaped name. Escapes that would produce a
// delimiter or whitespace are kept, since they cannot form a marker.
func (d *NameDecoder) Deobfuscate(content string) (string, error) {
	return d.namePattern.ReplaceAllStringFunc(content, func(name string) string {
		return d.escapePattern.ReplaceAllStringFunc(name, func(esc string) string {
			b, err := strconv.ParseUint(esc[1:], 16, 8)
			if err != nil || !isRegular(byte(b)) {
				return esc
			}
			return string(rune(b))
		})
	}), nil
}

// isRegular reports whether c may appear unescaped in a name
func isRegular(c byte) bool {
	if c <= ' ' || c >= 0x7f {
		return false
	}
	switch c {
	case '/', '[', ']', '(', ')', '<', '>', '{', '}', '%', '#':
		return false
	}
	return true
}
