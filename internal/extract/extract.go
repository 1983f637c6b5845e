// Package extract converts a single source file (PDF or plain text) into
// normalized prose. Extraction never fails past this package's boundary:
// problems are reported on the returned Document.
package extract

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Error messages recorded on Document.Error.
const (
	ErrMsgInvalidPDFPath = "Invalid PDF file path"
	ErrMsgInvalidTXTPath = "Invalid TXT file path"
	ErrMsgUnsupported    = "Unsupported file type"
	ErrMsgNoPDFLibrary   = "No PDF library available"
	ErrMsgNoPDFText      = "No text content found in PDF"
	ErrMsgDecodeFailed   = "Failed to decode text file"
)

// Metadata keys.
const (
	MetaPages    = "pages"
	MetaEncoding = "encoding"
)

// Document is the result of extracting one file. Exactly one of Content and
// Error is non-empty.
type Document struct {
	Filename string         `json:"filename"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Error    string         `json:"error,omitempty"`
}

// Failed reports whether extraction produced an error.
func (d Document) Failed() bool {
	return d.Error != ""
}

// Extractor dispatches files to the PDF or text path. The PDF backend is
// chosen once at construction.
type Extractor struct {
	pdf    PDFBackend
	logger *zap.Logger
}

// New creates an Extractor. A nil backend behaves as "no PDF library".
func New(pdf PDFBackend, logger *zap.Logger) *Extractor {
	if pdf == nil {
		pdf = NoPDFBackend{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{pdf: pdf, logger: logger}
}

// PDFBackendName returns the name of the selected PDF backend.
func (e *Extractor) PDFBackendName() string {
	return e.pdf.Name()
}

// Extract reads path and returns its sanitized text.
func (e *Extractor) Extract(path string) Document {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path)
	case ".txt":
		return e.extractTXT(path)
	default:
		return newDocument(path).fail(ErrMsgUnsupported)
	}
}

func (e *Extractor) extractPDF(path string) Document {
	doc := newDocument(path)
	if !isRegularFile(path) {
		return doc.fail(ErrMsgInvalidPDFPath)
	}

	pages, pageCount, err := e.pdf.ExtractPages(path)
	if err != nil {
		e.logger.Error("PDF extraction failed", zap.String("file", doc.Filename), zap.Error(err))
		return doc.fail(err.Error())
	}
	doc.Metadata[MetaPages] = pageCount

	nonEmpty := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	doc.Content = Sanitize(strings.Join(nonEmpty, "\n\n"))
	if doc.Content == "" {
		return doc.fail(ErrMsgNoPDFText)
	}

	e.logger.Info("Extracted PDF text",
		zap.String("file", doc.Filename),
		zap.Int("pages", pageCount),
		zap.Int("chars", len(doc.Content)))
	return doc
}

func (e *Extractor) extractTXT(path string) Document {
	doc := newDocument(path)
	if !isRegularFile(path) {
		return doc.fail(ErrMsgInvalidTXTPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Error("Reading text file failed", zap.String("file", doc.Filename), zap.Error(err))
		return doc.fail(err.Error())
	}

	text, encoding, ok := decodeText(data)
	if ok {
		doc.Content = Sanitize(text)
		doc.Metadata[MetaEncoding] = encoding
	}
	if doc.Content == "" {
		return doc.fail(ErrMsgDecodeFailed)
	}

	e.logger.Info("Read text file",
		zap.String("file", doc.Filename),
		zap.String("encoding", encoding),
		zap.Int("chars", len(doc.Content)))
	return doc
}

// Sanitize removes NUL bytes, collapses every whitespace run (newlines
// included) to a single space and trims the ends. It is idempotent.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.Join(strings.Fields(text), " ")
}

func newDocument(path string) Document {
	return Document{
		Filename: filepath.Base(path),
		Metadata: map[string]any{},
	}
}

func (d Document) fail(msg string) Document {
	d.Content = ""
	d.Error = msg
	return d
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
