// Package ocr extracts text content from PDF documents.
package ocr

import (
	"context"
	"time"

	"github.com/sells-group/finmetrics/internal/config"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) Extractor {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	return NewPdfToText(cfg.PdfToTextPath, timeout)
}
