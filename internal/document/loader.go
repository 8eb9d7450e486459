package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"ragmail/internal/domain"
)

// Load reads the document at path. PDFs are extracted page by page; anything else is read as text.
func Load(path string) (domain.Document, error) {
	if strings.TrimSpace(path) == "" {
		return domain.Document{}, fmt.Errorf("%w: empty path", domain.ErrDocumentNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s: %v", domain.ErrDocumentNotFound, path, err)
	}
	if info.IsDir() {
		return domain.Document{}, fmt.Errorf("%w: %s is a directory", domain.ErrDocumentNotFound, path)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return loadPDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s: %v", domain.ErrDocumentNotFound, path, err)
	}
	return domain.Document{Source: path, Text: normalize(string(data)), Pages: 1}, nil
}

func loadPDF(path string) (domain.Document, error) {
	f, r, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: open pdf %s: %v", domain.ErrDocumentNotFound, path, err)
	}
	return extract(path, r)
}

// LoadPDFBytes extracts text from an in-memory PDF such as an email attachment.
func LoadPDFBytes(name string, data []byte) (domain.Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.Document{}, fmt.Errorf("read pdf %s: %w", name, err)
	}
	return extract(name, r)
}

func extract(source string, r *pdf.Reader) (domain.Document, error) {
	var text strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return domain.Document{}, fmt.Errorf("extract page %d of %s: %w", i, source, err)
		}
		text.WriteString(content)
	}
	return domain.Document{Source: source, Text: normalize(text.String()), Pages: pages}, nil
}

// ReadText loads a plain-text document from r. Empty input is a configuration error.
func ReadText(source string, r io.Reader) (domain.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: read %s: %v", domain.ErrConfiguration, source, err)
	}
	if len(data) == 0 {
		return domain.Document{}, fmt.Errorf("%w: %s is empty", domain.ErrConfiguration, source)
	}
	return domain.Document{Source: source, Text: normalize(string(data)), Pages: 1}, nil
}

// normalize folds compatibility characters that PDF extraction tends to produce, such as ligatures.
func normalize(s string) string {
	return norm.NFKC.String(s)
}
