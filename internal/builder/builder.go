// Package builder turns raw document files into ordered lists of blocks,
// one builder per supported file format.
package builder

import (
	"fmt"

	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

// Builder extracts the ordered block list from one file format. Builders
// never compute content hashes; the ingestion pipeline owns hashing.
type Builder interface {
	Build(path string) ([]*models.Block, error)
}

// ForFormat returns the builder for a file type (extension without the dot).
// Formats without a real builder yet return a stub that produces an empty
// block list; unknown formats return models.ErrUnsupportedFormat.
func ForFormat(fileType string, logger *zap.Logger) (Builder, error) {
	switch fileType {
	case "pdf":
		return NewPDFBuilder(), nil
	case "docx":
		return NewDocxBuilder(), nil
	case "pptx":
		return NewPptxBuilder(logger), nil
	case "xlsx", "xls":
		return NewXlsxBuilder(logger), nil
	default:
		return nil, fmt.Errorf("file type %q: %w", fileType, models.ErrUnsupportedFormat)
	}
}
