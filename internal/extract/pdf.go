package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFBackend extracts the text of each page of a PDF, in page order.
type PDFBackend interface {
	Name() string
	// ExtractPages returns one string per page (possibly empty) and the
	// document's page count.
	ExtractPages(path string) ([]string, int, error)
}

// SelectPDFBackend returns the first non-nil candidate, or NoPDFBackend when
// none is available. It is called once at startup.
func SelectPDFBackend(candidates ...PDFBackend) PDFBackend {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return NoPDFBackend{}
}

// DefaultPDFBackend selects the pdfcpu backend.
func DefaultPDFBackend() PDFBackend {
	return SelectPDFBackend(NewPDFCPUBackend())
}

// NoPDFBackend is used when no PDF library can be wired in.
type NoPDFBackend struct{}

// Name implements PDFBackend.
func (NoPDFBackend) Name() string { return "none" }

// ExtractPages implements PDFBackend.
func (NoPDFBackend) ExtractPages(string) ([]string, int, error) {
	return nil, 0, fmt.Errorf("%s", ErrMsgNoPDFLibrary)
}

// PDFCPUBackend reads page content streams with pdfcpu.
type PDFCPUBackend struct {
	conf *model.Configuration
}

// NewPDFCPUBackend creates a pdfcpu-backed extractor.
func NewPDFCPUBackend() *PDFCPUBackend {
	return &PDFCPUBackend{conf: model.NewDefaultConfiguration()}
}

// Name implements PDFBackend.
func (b *PDFCPUBackend) Name() string { return "pdfcpu" }

// ExtractPages implements PDFBackend.
func (b *PDFCPUBackend) ExtractPages(path string) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	ctx, err := api.ReadValidateAndOptimize(f, b.conf)
	if err != nil {
		return nil, 0, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pages = append(pages, pageText(ctx, pageNr))
	}
	return pages, ctx.PageCount, nil
}

func pageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return textFromContentStream(data)
}

// literalRe matches PDF string literals: (text).
var literalRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream pulls shown text out of a page content stream. Only
// the text-showing operators are honored; positioning operators become
// spaces or newlines.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			writeLiterals(&sb, line)
		case bytes.HasSuffix(line, []byte("'")), bytes.HasSuffix(line, []byte(`"`)):
			sb.WriteByte('\n')
			writeLiterals(&sb, line)
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			sb.WriteByte(' ')
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String())
}

func writeLiterals(sb *strings.Builder, line []byte) {
	for _, m := range literalRe.FindAllSubmatch(line, -1) {
		sb.WriteString(unescapePDFString(m[1]))
	}
}

// unescapePDFString resolves backslash escapes, including octal codes.
func unescapePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b', 'f':
			sb.WriteByte(' ')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			val := 0
			for n := 0; n < 3 && i < len(raw) && raw[i] >= '0' && raw[i] <= '7'; n++ {
				val = val*8 + int(raw[i]-'0')
				i++
			}
			i--
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}
