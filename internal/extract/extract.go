// Package extract performs client-side text extraction from candidate
// documents. It is a best-effort step: the server keeps its own extracted
// copy, this one feeds the analyze request.
package extract

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"cv-analyzer-client/internal/models"
)

// NewFile registers a locally selected file, assigning its client-side
// identifier. The identifier is immutable for the life of the selection.
func NewFile(path string) (models.UploadedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return models.UploadedFile{
		ID:   uuid.New().String(),
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
		Ext:  strings.ToLower(filepath.Ext(path)),
	}, nil
}

// Text extracts plain text from a candidate document based on its
// extension.
func Text(file models.UploadedFile) (string, error) {
	switch file.Ext {
	case ".pdf":
		return fromPDF(file.Path)
	case ".docx":
		return fromDocx(file.Path)
	case ".txt", ".md":
		return fromPlain(file.Path)
	default:
		return "", fmt.Errorf("unsupported file extension: %s", file.Ext)
	}
}

func fromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}
	return CleanText(text), nil
}

func fromDocx(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer r.Close()

	text := stripDocxMarkup(r.Editable().GetContent())
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in DOCX")
	}
	return CleanText(text), nil
}

func fromPlain(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return CleanText(string(raw)), nil
}

var (
	docxParaRe = regexp.MustCompile(`</w:p>`)
	docxTagRe  = regexp.MustCompile(`<[^>]+>`)
)

// stripDocxMarkup reduces WordprocessingML to plain text: paragraph ends
// become newlines, every other tag is dropped, entities are unescaped.
func stripDocxMarkup(content string) string {
	content = docxParaRe.ReplaceAllString(content, "\n")
	content = docxTagRe.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

// Stats counts the non-empty lines and words of an extracted text, for
// display alongside stored documents.
func Stats(text string) (lines, words int) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}
	return lines, len(strings.Fields(text))
}

// CleanText trims whitespace and collapses blank lines.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleanedLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}
	return strings.Join(cleanedLines, "\n")
}
