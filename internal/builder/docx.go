package builder

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hyperjump/naosu/internal/models"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wpOpenTag matches a paragraph open tag with or without attributes.
var wpOpenTag = regexp.MustCompile(`<w:p[ >]`)

// wtTag matches <w:t>text</w:t> or <w:t xml:space="preserve">text</w:t> (and any other attributes).
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// DocxBuilder extracts one text block per non-empty paragraph of the main
// document body. DOCX is a ZIP containing word/document.xml (OOXML); we split
// on <w:p> paragraph tags and collect <w:t> text nodes per paragraph so real
// documents with attributed paragraphs (e.g. <w:p w:rsidR="...">) work.
type DocxBuilder struct{}

// NewDocxBuilder returns a new DocxBuilder.
func NewDocxBuilder() *DocxBuilder {
	return &DocxBuilder{}
}

// Build extracts paragraph blocks from the file. Paragraph index is the
// identity coordinate; it is re-derivable from a fresh parse of the same
// file.
func (b *DocxBuilder) Build(path string) ([]*models.Block, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read DOCX %s: %w", path, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX %s: not a zip: %w", path, err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("open DOCX %s: %w", path, err)
	}

	fileName := filepath.Base(path)
	var blocks []*models.Block

	paragraphs := wpOpenTag.Split(string(docXML), -1)
	paraIdx := 0
	for i, para := range paragraphs {
		if i == 0 {
			// Preamble before the first paragraph tag.
			continue
		}
		parts := wtTag.FindAllStringSubmatch(para, -1)
		var sb strings.Builder
		for _, p := range parts {
			sb.WriteString(p[1])
		}
		text := strings.TrimSpace(sb.String())
		pIdx := paraIdx
		paraIdx++
		if text == "" {
			continue
		}
		blocks = append(blocks, &models.Block{
			ID:       fmt.Sprintf("docx:%s:para%d", fileName, pIdx),
			Type:     models.BlockText,
			Location: models.BlockLocation{},
			Content:  text,
			Metadata: map[string]any{
				"paragraph": pIdx,
				"source":    "docx",
			},
		})
	}

	return blocks, nil
}

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil {
		return ""
	}
	content := string(data)
	// Try both attribute orders
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

// readZipFile reads one file from the archive by exact name.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		_ = rc.Close()
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
