// Package pdfdoc wraps the PDF libraries behind the three operations the
// report pipeline needs: pull plain text out of a file, render text into a new
// file, and concatenate files.
package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// DefaultMaxTextBytes caps how much text is read from a single document.
const DefaultMaxTextBytes = 8 << 20

// ErrNoText is returned when a PDF yields only whitespace.
var ErrNoText = errors.New("pdf contains no extractable text")

// Extractor reads plain text from PDF files on disk.
type Extractor struct {
	MaxBytes int
	// Log receives a warning when a document is cut at MaxBytes.
	Log logrus.FieldLogger
}

// NewExtractor returns an Extractor with the default byte cap.
func NewExtractor() *Extractor {
	return &Extractor{MaxBytes: DefaultMaxTextBytes, Log: logrus.StandardLogger()}
}

// ExtractText returns the trimmed plain text of the PDF at path.
// The underlying parser panics on some malformed inputs; those panics are
// returned as errors.
func (e *Extractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	limit := e.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxTextBytes
	}
	var buf bytes.Buffer
	lr := &io.LimitedReader{R: reader, N: int64(limit)}
	if _, err := io.Copy(&buf, lr); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	if lr.N == 0 && e.Log != nil {
		if n, _ := reader.Read(make([]byte, 1)); n > 0 {
			e.Log.WithFields(logrus.Fields{"path": path, "max_bytes": limit}).
				Warn("pdf text truncated, analysis covers only the first part of the document")
		}
	}

	text = strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
