// Package extract converts uploaded files into plain text for
// chunking. One extractor per supported format.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	"github.com/calixflow/knowledge/internal/domain"
)

// Supported MIME types (the upload allow-list).
const (
	MIMEPlainText = "text/plain"
	MIMEPDF       = "application/pdf"
	MIMEWordDoc   = "application/msword"
	MIMEWordDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// legacyDocNotice is returned for .doc files: no maintained pure-Go
// reader exists for the legacy binary Word format.
const legacyDocNotice = "[This legacy Word document could not be converted to text. " +
	"Re-upload it as .docx, .pdf or .txt to make its content searchable.]"

// Allowed reports whether contentType is on the ingestion allow-list.
func Allowed(contentType string) bool {
	switch normalize(contentType) {
	case MIMEPlainText, MIMEPDF, MIMEWordDoc, MIMEWordDocx:
		return true
	}
	return false
}

// Text extracts plain text from file bytes according to contentType,
// falling back to the filename extension when the type is generic.
func Text(filename, contentType string, data []byte) (string, error) {
	switch normalize(contentType) {
	case MIMEPlainText:
		return string(data), nil
	case MIMEPDF:
		return pdfText(data)
	case MIMEWordDocx:
		return docxText(data)
	case MIMEWordDoc:
		// .docx uploaded by old clients sometimes arrives as msword.
		if strings.EqualFold(filepath.Ext(filename), ".docx") {
			return docxText(data)
		}
		return legacyDocNotice, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, contentType)
}

// normalize strips parameters like "; charset=utf-8".
func normalize(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			sb.WriteString(para.String())
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// ReadAll is a size-capped io.ReadAll used by upload handlers.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", domain.ErrFileTooLarge, limit)
	}
	return data, nil
}
