package builder

import (
	"fmt"
	"path/filepath"

	"github.com/hyperjump/naosu/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XlsxBuilder is a deliberate not-yet-implemented builder for spreadsheets.
// It verifies the workbook opens, then produces an empty block list so
// ingestion of a workbook succeeds with zero blocks instead of failing the
// whole request.
type XlsxBuilder struct {
	logger *zap.Logger
}

// NewXlsxBuilder returns a new XlsxBuilder. logger may be nil.
func NewXlsxBuilder(logger *zap.Logger) *XlsxBuilder {
	return &XlsxBuilder{logger: logger}
}

// Build opens the workbook to reject unreadable files, then returns no
// blocks and logs a warning.
func (b *XlsxBuilder) Build(path string) ([]*models.Block, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	defer wb.Close()

	if b.logger != nil {
		b.logger.Warn("xlsx block extraction not implemented",
			zap.String("file", filepath.Base(path)),
			zap.Int("sheets", wb.SheetCount))
	}
	return nil, nil
}
