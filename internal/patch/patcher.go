// Package patch applies narrowly scoped, surgical edits to a document and
// executes multi-operation patch plans against it.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/naosu/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

// Patcher performs exactly one localized text substitution per call: find
// the literal old text on the block's recorded page, remove it from the
// content stream so no residual original text remains, and stamp the new
// text over the block's recorded region.
//
// This is a literal-text-match substitution, not a semantic or
// layout-reflowing edit: it trades generality for the guarantee that
// unrelated document content is provably untouched.
type Patcher struct {
	logger *zap.Logger
}

// NewPatcher creates a patcher. logger may be nil.
func NewPatcher(logger *zap.Logger) *Patcher {
	return &Patcher{logger: logger}
}

// Apply performs one substitution described by instr against block's page,
// reading inputPath and writing outputPath. The input file is never written;
// parent directories of outputPath are created as needed.
//
// Fails with models.ErrNotFound when the old text does not occur on the page
// (content drift since ingestion) and models.ErrAmbiguous when it occurs more
// than once; the patcher never guesses which occurrence was intended.
func (p *Patcher) Apply(inputPath, outputPath string, block *models.Block, instr models.PatchInstruction) error {
	if instr.OldText == "" || instr.NewText == "" {
		return fmt.Errorf("patch instruction missing old_text or new_text")
	}
	if block.Location.Page == nil {
		return fmt.Errorf("block %s: patch requires a page number", block.ID)
	}
	if block.Location.BBox == nil {
		return fmt.Errorf("block %s: patch requires a location bbox", block.ID)
	}
	pageNr := *block.Location.Page

	if p.logger != nil {
		p.logger.Info("patch start",
			zap.String("file", filepath.Base(inputPath)),
			zap.Int("page", pageNr),
			zap.String("block_id", block.ID))
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("input %s: %w", inputPath, models.ErrNotFound)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}
	if pageNr < 1 || pageNr > ctx.PageCount {
		return fmt.Errorf("page %d of %s: %w", pageNr, filepath.Base(inputPath), models.ErrNotFound)
	}

	if err := p.excise(ctx, pageNr, instr.OldText, block.ID); err != nil {
		if p.logger != nil {
			p.logger.Error("patch failed",
				zap.String("file", filepath.Base(inputPath)),
				zap.String("block_id", block.ID),
				zap.Error(err))
		}
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	// Write the masked document, then overlay the replacement text in a
	// second pass so the stamp ends up on top of the page content.
	masked := outputPath + ".mask"
	if err := api.WriteContextFile(ctx, masked); err != nil {
		return fmt.Errorf("write masked document: %w", err)
	}
	defer os.Remove(masked)

	if err := p.overlay(masked, outputPath, pageNr, *block.Location.BBox, instr.NewText); err != nil {
		if p.logger != nil {
			p.logger.Error("patch failed",
				zap.String("file", filepath.Base(inputPath)),
				zap.String("block_id", block.ID),
				zap.Error(err))
		}
		return err
	}

	if p.logger != nil {
		p.logger.Info("patch applied", zap.String("output", filepath.Base(outputPath)))
	}
	return nil
}

// excise locates oldText among the page's text literals and removes its
// single occurrence from the containing content stream.
func (p *Patcher) excise(ctx *model.Context, pageNr int, oldText, blockID string) error {
	sds, err := pageContentStreams(ctx, pageNr)
	if err != nil {
		return fmt.Errorf("page %d content: %w", pageNr, err)
	}

	total := 0
	litsPer := make([][]literal, len(sds))
	for i, sd := range sds {
		if err := sd.Decode(); err != nil {
			return fmt.Errorf("decode page %d stream: %w", pageNr, err)
		}
		litsPer[i] = findTextLiterals(sd.Content)
		total += countOccurrences(litsPer[i], oldText)
	}

	if total == 0 {
		return fmt.Errorf("target text not found on page %d for block %s: %w",
			pageNr, blockID, models.ErrNotFound)
	}
	if total > 1 {
		return fmt.Errorf("%d matches on page %d for block %s: %w",
			total, pageNr, blockID, models.ErrAmbiguous)
	}

	for i, sd := range sds {
		if countOccurrences(litsPer[i], oldText) == 0 {
			continue
		}
		sd.Content = exciseLiteral(sd.Content, litsPer[i], oldText)
		if err := sd.Encode(); err != nil {
			return fmt.Errorf("encode page %d stream: %w", pageNr, err)
		}
	}
	return nil
}

// overlay stamps newText onto the masked region, black, left-anchored at the
// region's lower-left corner, sized to fit the region's height.
func (p *Patcher) overlay(inPath, outPath string, pageNr int, bbox models.Rect, newText string) error {
	points := int(bbox.Height() * 0.75)
	if points < 4 {
		points = 4
	}
	desc := fmt.Sprintf(
		"fontname:Helvetica, points:%d, position:bl, offset:%.1f %.1f, fillcolor:#000000, rotation:0, opacity:1, scalefactor:1 abs",
		points, bbox.X0, bbox.Y0)

	wm, err := api.TextWatermark(newText, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("build text stamp: %w", err)
	}
	pages := []string{strconv.Itoa(pageNr)}
	if err := api.AddWatermarksFile(inPath, outPath, pages, wm, nil); err != nil {
		return fmt.Errorf("stamp replacement text: %w", err)
	}
	return nil
}

// pageContentStreams resolves the content stream dicts of one page. A page's
// Contents entry is either a single stream or an array of streams. Streams
// are resolved through the xref table so mutations land in the entries the
// writer serializes.
func pageContentStreams(ctx *model.Context, pageNr int) ([]*types.StreamDict, error) {
	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, err
	}
	obj, found := pageDict.Find("Contents")
	if !found {
		return nil, fmt.Errorf("page has no content stream")
	}

	if sd, _, err := ctx.DereferenceStreamDict(obj); err == nil && sd != nil {
		return []*types.StreamDict{sd}, nil
	}

	arr, err := ctx.DereferenceArray(obj)
	if err != nil || arr == nil {
		return nil, fmt.Errorf("unexpected Contents object type")
	}
	var sds []*types.StreamDict
	for _, entry := range arr {
		sd, _, err := ctx.DereferenceStreamDict(entry)
		if err != nil {
			return nil, err
		}
		if sd != nil {
			sds = append(sds, sd)
		}
	}
	return sds, nil
}
