package retriever

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

var pdfMagic = []byte("%PDF-")

// ExtractText returns the plain text of a PDF or UTF-8 text upload.
func ExtractText(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("%w: document is empty", contractx.ErrIngest)
	}

	var text string
	if bytes.HasPrefix(data, pdfMagic) {
		extracted, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("%w: read pdf: %w", contractx.ErrIngest, err)
		}
		text = extracted
	} else {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: unsupported document format", contractx.ErrIngest)
		}
		text = string(data)
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", fmt.Errorf("%w: document has no extractable text", contractx.ErrIngest)
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
