package ooxml

import (
	"bytes"
	"io"
	"testing"

	"github.com/IvanShishkin/docsentry/pkg/models"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = Limits{MaxEntries: 100, MaxEntrySize: 1 << 20, MaxTotalSize: 4 << 20}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="bin" ContentType="application/vnd.ms-office.vbaProject"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.ms-word.document.macroEnabled.main+xml"/><Override PartName="/word/vbaData.xml" ContentType="application/vnd.ms-word.vbaData+xml"/></Types>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.microsoft.com/office/2006/relationships/vbaProject" Target="vbaProject.bin"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

type entry struct {
	name string
	body string
}

func buildZip(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func macroDocument(t *testing.T) []byte {
	return buildZip(t,
		entry{"[Content_Types].xml", contentTypes},
		entry{"word/document.xml", "<w:document>hello</w:document>"},
		entry{"word/_rels/document.xml.rels", documentRels},
		entry{"word/vbaProject.bin", "\xd0\xcf\x11\xe0 Attribute VB_Name = \"ThisDocument\""},
		entry{"word/vbaData.xml", "<wne:vbaSuppData/>"},
		entry{"word/_rels/vbaProject.bin.rels", "<Relationships/>"},
		entry{"word/styles.xml", "<w:styles/>"},
	)
}

func TestSanitize_RemovesMacroProject(t *testing.T) {
	res, err := New(models.SubtypeWord, limits).Sanitize(macroDocument(t))
	require.NoError(t, err)

	parts := readZip(t, res.Data)
	assert.NotContains(t, parts, "word/vbaProject.bin")
	assert.NotContains(t, parts, "word/vbaData.xml")
	assert.NotContains(t, parts, "word/_rels/vbaProject.bin.rels")
	assert.Equal(t, "<w:document>hello</w:document>", parts["word/document.xml"])
	assert.Equal(t, "<w:styles/>", parts["word/styles.xml"])

	assert.ElementsMatch(t, []string{
		"word/vbaProject.bin",
		"word/vbaData.xml",
		"word/_rels/vbaProject.bin.rels",
		RemovedRelationships,
		RemovedContentTypes,
	}, res.Removed)
}

func TestSanitize_FiltersRelationships(t *testing.T) {
	res, err := New(models.SubtypeWord, limits).Sanitize(macroDocument(t))
	require.NoError(t, err)

	rels := readZip(t, res.Data)["word/_rels/document.xml.rels"]
	assert.NotContains(t, rels, "vbaProject")
	assert.Contains(t, rels, `Id="rId2"`)
	assert.Contains(t, rels, "</Relationships>")
}

func TestSanitize_FiltersContentTypes(t *testing.T) {
	res, err := New(models.SubtypeWord, limits).Sanitize(macroDocument(t))
	require.NoError(t, err)

	types := readZip(t, res.Data)["[Content_Types].xml"]
	assert.NotContains(t, types, "vbaProject")
	assert.NotContains(t, types, "vbaData")
	assert.Contains(t, types, `PartName="/word/document.xml"`)
	assert.Contains(t, types, `Extension="xml"`)
}

func TestSanitize_CleanPackageUnchanged(t *testing.T) {
	data := buildZip(t,
		entry{"[Content_Types].xml", `<Types><Default Extension="xml" ContentType="application/xml"/></Types>`},
		entry{"xl/workbook.xml", "<workbook/>"},
	)

	res, err := New(models.SubtypeSheet, limits).Sanitize(data)
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.Equal(t, data, res.Data)
}

func TestSanitize_Idempotent(t *testing.T) {
	s := New(models.SubtypeWord, limits)

	first, err := s.Sanitize(macroDocument(t))
	require.NoError(t, err)

	second, err := s.Sanitize(first.Data)
	require.NoError(t, err)
	assert.Empty(t, second.Removed)
	assert.Equal(t, first.Data, second.Data)
}

func TestSanitize_SubtypeSelectsParts(t *testing.T) {
	data := buildZip(t,
		entry{"xl/workbook.xml", "<workbook/>"},
		entry{"xl/vbaProject.bin", "vba"},
		entry{"xl/vbaData.xml", "<x/>"},
	)

	res, err := New(models.SubtypeSheet, limits).Sanitize(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"xl/vbaProject.bin"}, res.Removed)
	assert.Contains(t, readZip(t, res.Data), "xl/vbaData.xml")
}

func TestSanitize_Errors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		_, err := New(models.SubtypeWord, limits).Sanitize([]byte("definitely not a zip"))
		assert.Error(t, err)
	})

	t.Run("unknown subtype", func(t *testing.T) {
		_, err := New("", limits).Sanitize(macroDocument(t))
		assert.ErrorIs(t, err, ErrUnknownSubtype)
	})

	t.Run("too many entries", func(t *testing.T) {
		_, err := New(models.SubtypeWord, Limits{MaxEntries: 2}).Sanitize(macroDocument(t))
		assert.ErrorIs(t, err, ErrTooManyEntries)
	})

	t.Run("entry too large", func(t *testing.T) {
		data := buildZip(t, entry{"word/document.xml", string(bytes.Repeat([]byte("a"), 4096))})
		_, err := New(models.SubtypeWord, Limits{MaxEntrySize: 1024}).Sanitize(data)
		assert.ErrorIs(t, err, ErrEntryTooLarge)
	})

	t.Run("total too large", func(t *testing.T) {
		body := string(bytes.Repeat([]byte("a"), 600))
		data := buildZip(t, entry{"a.xml", body}, entry{"b.xml", body})
		_, err := New(models.SubtypeWord, Limits{MaxTotalSize: 1000}).Sanitize(data)
		assert.ErrorIs(t, err, ErrTotalTooLarge)
	})
}

func TestFilterRelationships_ByTarget(t *testing.T) {
	in := []byte(`<Relationships><Relationship Id="rId7" Type="urn:custom" Target="../word/vbaProject.bin"></Relationship><Relationship Id="rId8" Type="urn:other" Target="media/image1.png"/></Relationships>`)

	out, changed := filterRelationships(in, map[string]bool{"vbaproject.bin": true})
	require.True(t, changed)
	assert.NotContains(t, string(out), "rId7")
	assert.Contains(t, string(out), "rId8")
}
