package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/fmuoria/resume-parser/internal/models"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpulib "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF recovers page text in reading order. The row-based reader is
// tried first, then pdfcpu content streams. A configured pdftotext binary
// takes precedence over both.
func (e *Extractor) extractPDF(ctx context.Context, doc models.SourceDocument) (string, error) {
	if e.cfg.PDFToTextPath != "" {
		return e.extractPDFWithPDFToText(ctx, doc)
	}

	text, err := extractPDFRows(doc.Data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		e.cfg.Logger.Debug("row extraction failed, trying content streams", "file", doc.Name, "error", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	fallback, ferr := extractPDFContentStreams(doc.Data)
	if ferr != nil {
		if err != nil {
			return "", fmt.Errorf("%v; fallback: %w", err, ferr)
		}
		return "", ferr
	}
	return fallback, nil
}

// extractPDFRows reads each page with ledongthuc/pdf and joins rows by newline
func extractPDFRows(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			// continue with other pages
			continue
		}
		for _, row := range rows {
			line := joinRow(row.Content)
			if strings.TrimSpace(line) == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}

// joinRow concatenates glyph runs, inserting a space where the horizontal
// gap between runs is wider than a fraction of the font size
func joinRow(texts []pdf.Text) string {
	var sb strings.Builder
	prevEnd := math.NaN()
	for _, t := range texts {
		if !math.IsNaN(prevEnd) {
			gap := t.X - prevEnd
			if gap > t.FontSize*0.15 && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.TrimSpace(sb.String())
}

// extractPDFContentStreams walks page content streams through pdfcpu
func extractPDFContentStreams(data []byte) (string, error) {
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		r, err := pdfcpulib.ExtractPageContent(pctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil || len(content) == 0 {
			continue
		}
		if t := textFromContentStream(content); t != "" {
			pages = append(pages, t)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("no text content found in PDF")
	}
	return strings.Join(pages, "\n\n"), nil
}

var pdfStringPattern = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream interprets text-showing and positioning operators
// line by line. Vertical moves and T* start a new output line.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringPattern.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			newline()
			for _, m := range pdfStringPattern.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			fields := bytes.Fields(line)
			if len(fields) >= 3 && string(fields[len(fields)-2]) != "0" {
				newline()
			} else if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			newline()
		}
	}

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// decodePDFString handles the escape sequences of PDF literal strings
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
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
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] < '0' || raw[i] > '7' {
				sb.WriteByte(raw[i])
				continue
			}
			val := int(raw[i] - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// extractPDFWithPDFToText shells out to pdftotext -layout
func (e *Extractor) extractPDFWithPDFToText(ctx context.Context, doc models.SourceDocument) (string, error) {
	path, cleanup, err := materialize(doc, ".pdf")
	if err != nil {
		return "", err
	}
	defer cleanup()

	out, err := e.runCommand(ctx, e.cfg.PDFToTextPath, "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return normalizeNewlines(string(out)), nil
}

// materialize returns a file path holding doc's bytes. Documents loaded from
// disk are used in place; others are written to a temp file.
func materialize(doc models.SourceDocument, ext string) (string, func(), error) {
	if doc.Path != "" {
		if _, err := os.Stat(doc.Path); err == nil {
			return doc.Path, func() {}, nil
		}
	}

	f, err := os.CreateTemp("", "resume-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.Write(doc.Data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
