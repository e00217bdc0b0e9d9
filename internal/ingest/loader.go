// Package ingest loads pitch documents from a local directory.
// Markdown files are read verbatim; PDFs are flattened to plain text.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/vcdesk/deckeval/internal/domain"
)

// LoadDir reads every .md and .pdf file directly under dir and returns
// them as documents sorted by name. Unreadable files fail the whole
// load so a batch never silently drops documents.
func LoadDir(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading document dir: %w", err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".md" && ext != ".pdf" {
			continue
		}

		doc, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// LoadFile reads one document. The file path doubles as the document
// ID; the base name becomes the document name.
func LoadFile(path string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return domain.Document{}, fmt.Errorf("reading %s: %w", path, err)
		}
		text = string(raw)
	case ".pdf":
		text, err = extractPDFText(path)
		if err != nil {
			return domain.Document{}, fmt.Errorf("extracting %s: %w", path, err)
		}
	default:
		return domain.Document{}, fmt.Errorf("unsupported document type: %s", path)
	}

	return domain.Document{
		ID:         path,
		Name:       filepath.Base(path),
		Text:       normalizeWhitespace(text),
		ModifiedAt: info.ModTime(),
	}, nil
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no extractable text in pdf")
	}
	return b.String(), nil
}

// normalizeWhitespace collapses runs of whitespace so fingerprints do
// not churn on incidental formatting differences between exports of
// the same deck.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	return strings.Join(out, "\n")
}
