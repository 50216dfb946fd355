package builder

import (
	"path/filepath"

	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

// PptxBuilder is a deliberate not-yet-implemented builder for slide decks.
// It produces an empty block list so ingestion of a presentation succeeds
// with zero blocks instead of failing the whole request.
type PptxBuilder struct {
	logger *zap.Logger
}

// NewPptxBuilder returns a new PptxBuilder. logger may be nil.
func NewPptxBuilder(logger *zap.Logger) *PptxBuilder {
	return &PptxBuilder{logger: logger}
}

// Build returns no blocks and logs a warning.
func (b *PptxBuilder) Build(path string) ([]*models.Block, error) {
	if b.logger != nil {
		b.logger.Warn("pptx builder not implemented",
			zap.String("file", filepath.Base(path)))
	}
	return nil, nil
}
