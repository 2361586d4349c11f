package models

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Family is the document container family a file belongs to
type Family string

const (
	FamilyPDF     Family = "pdf"
	FamilyOOXML   Family = "ooxml"
	FamilyRTF     Family = "rtf"
	FamilyUnknown Family = "unknown"
)

// Subtype distinguishes the OOXML applications
type Subtype string

const (
	SubtypeNone  Subtype = ""
	SubtypeWord  Subtype = "word"
	SubtypeSheet Subtype = "sheet"
	SubtypeSlide Subtype = "slide"
)

var ooxmlSubtypes = map[string]Subtype{
	"docx": SubtypeWord, "docm": SubtypeWord, "dotx": SubtypeWord, "dotm": SubtypeWord,
	"xlsx": SubtypeSheet, "xlsm": SubtypeSheet, "xltx": SubtypeSheet, "xltm": SubtypeSheet,
	"pptx": SubtypeSlide, "pptm": SubtypeSlide, "ppsx": SubtypeSlide, "ppsm": SubtypeSlide,
	"potx": SubtypeSlide, "potm": SubtypeSlide,
}

// NormalizeExtension returns the lowercase extension of name without the dot
func NormalizeExtension(name string) string {
	return CleanExtension(filepath.Ext(name))
}

// CleanExtension lowercases an extension tag and strips a leading dot
func CleanExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// FamilyOf maps a normalized extension to its family
func FamilyOf(ext string) Family {
	switch ext {
	case "pdf":
		return FamilyPDF
	case "rtf":
		return FamilyRTF
	}
	if _, ok := ooxmlSubtypes[ext]; ok {
		return FamilyOOXML
	}
	return FamilyUnknown
}

// SubtypeOf returns the OOXML subtype for ext, or SubtypeNone
func SubtypeOf(ext string) Subtype {
	return ooxmlSubtypes[ext]
}

// OOXMLExtensions lists every extension handled as OOXML
func OOXMLExtensions() []string {
	exts := make([]string, 0, len(ooxmlSubtypes))
	for ext := range ooxmlSubtypes {
		exts = append(exts, ext)
	}
	return exts
}

// FileArtifact is an immutable document buffer with its identity.
// Transformations never modify an artifact, they produce a new one.
type FileArtifact struct {
	data      []byte
	filename  string
	extension string
	mediaType string
	sha256    string
}

// NewArtifact copies data and computes the content hash
func NewArtifact(data []byte, filename, mediaType string) *FileArtifact {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &FileArtifact{
		data:      buf,
		filename:  filename,
		extension: NormalizeExtension(filename),
		mediaType: mediaType,
		sha256:    HashBytes(buf),
	}
}

// HashBytes returns the hex SHA-256 of data
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Bytes returns a copy of the content
func (a *FileArtifact) Bytes() []byte {
	buf := make([]byte, len(a.data))
	copy(buf, a.data)
	return buf
}

// View returns the content without copying. Callers must not modify it.
func (a *FileArtifact) View() []byte { return a.data }

func (a *FileArtifact) Filename() string  { return a.filename }
func (a *FileArtifact) Extension() string { return a.extension }
func (a *FileArtifact) MediaType() string { return a.mediaType }
func (a *FileArtifact) SHA256() string    { return a.sha256 }
func (a *FileArtifact) Size() int         { return len(a.data) }
func (a *FileArtifact) Family() Family    { return FamilyOf(a.extension) }
func (a *FileArtifact) Subtype() Subtype  { return SubtypeOf(a.extension) }
