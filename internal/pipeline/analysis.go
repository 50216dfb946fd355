// Package pipeline orchestrates document processing: intent routing, block
// resolution, scope validation, and dispatch to read, analyze, or patch
// planning. It never mutates a document.
package pipeline

import (
	"fmt"

	"github.com/hyperjump/naosu/internal/cache"
	"github.com/hyperjump/naosu/internal/intent"
	"github.com/hyperjump/naosu/internal/models"
	"github.com/hyperjump/naosu/internal/planner"
	"github.com/hyperjump/naosu/pkg/utils"
	"go.uber.org/zap"
)

// defaultScope is how many leading text blocks an un-referenced instruction
// resolves to. A heuristic default, overridable via config.
const defaultScope = 3

// Result is the tagged outcome of one processed instruction.
type Result struct {
	Mode          string            `json:"mode"` // read | analysis | patch_plan
	Blocks        []ReadBlock       `json:"blocks,omitempty"`
	AnalysisUnits []AnalysisUnit    `json:"analysis_units,omitempty"`
	Plan          *models.PatchPlan `json:"plan,omitempty"`
}

// ReadBlock is the non-destructive read view of one block.
type ReadBlock struct {
	BlockID  string               `json:"block_id"`
	Type     models.BlockType     `json:"type"`
	Content  any                  `json:"content"`
	Location models.BlockLocation `json:"location"`
}

// AnalysisUnit is one block prepared for the reasoning collaborator. Image
// blocks defer to on-demand vision instead of inlining pixel content.
type AnalysisUnit struct {
	BlockID   string           `json:"block_id"`
	Type      models.BlockType `json:"type"`
	Content   any              `json:"content,omitempty"`
	Analysis  string           `json:"analysis,omitempty"`
	Reference any              `json:"reference,omitempty"`
}

// Analysis runs instructions against cached document structure.
type Analysis struct {
	cache     *cache.IndexCache
	router    *intent.Router
	validator *intent.Validator
	planner   *planner.Planner
	scope     int
	logger    *zap.Logger
}

// Option configures an Analysis.
type Option func(*Analysis)

// WithDefaultScope overrides how many leading text blocks an instruction
// without explicit references resolves to.
func WithDefaultScope(n int) Option {
	return func(a *Analysis) {
		if n > 0 {
			a.scope = n
		}
	}
}

// NewAnalysis creates the processing pipeline over the given cache.
func NewAnalysis(c *cache.IndexCache, logger *zap.Logger, opts ...Option) *Analysis {
	a := &Analysis{
		cache:     c,
		router:    intent.NewRouter(logger),
		validator: intent.NewValidator(logger),
		planner:   planner.NewPlanner(logger),
		scope:     defaultScope,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run interprets one instruction against an ingested document. The document
// must already be cache-resident; otherwise models.ErrNotFound is returned.
func (a *Analysis) Run(documentID, query string, referencedBlockIDs []string) (*Result, error) {
	a.logger.Info("process start",
		zap.String("document_id", documentID),
		zap.String("query", utils.Truncate(query, 200)))

	index, err := a.cache.Get(documentID)
	if err != nil {
		a.logger.Error("process: document not indexed", zap.String("document_id", documentID))
		return nil, err
	}

	it := a.router.Route(query, referencedBlockIDs)
	blocks := a.resolveBlocks(index.Blocks, it)

	a.logger.Debug("blocks resolved",
		zap.String("intent", string(it.Type)),
		zap.Int("count", len(blocks)))

	if err := a.validator.Validate(it, blocks); err != nil {
		return nil, err
	}

	switch it.Type {
	case models.IntentRead:
		return readResult(blocks), nil
	case models.IntentAnalyze:
		return analysisResult(blocks), nil
	case models.IntentPatch:
		plan, err := a.planner.Plan(documentID, it, blocks)
		if err != nil {
			return nil, err
		}
		return &Result{Mode: "patch_plan", Plan: plan}, nil
	default:
		return nil, fmt.Errorf("unsupported intent %q: %w", it.Type, models.ErrInvalidIntent)
	}
}

// resolveBlocks returns explicitly referenced blocks, or the safe default
// scope of leading text blocks when the instruction references none.
func (a *Analysis) resolveBlocks(all []*models.Block, it models.Intent) []*models.Block {
	if len(it.ReferencedBlockIDs) > 0 {
		wanted := make(map[string]bool, len(it.ReferencedBlockIDs))
		for _, id := range it.ReferencedBlockIDs {
			wanted[id] = true
		}
		var out []*models.Block
		for _, b := range all {
			if wanted[b.ID] {
				out = append(out, b)
			}
		}
		return out
	}

	var out []*models.Block
	for _, b := range all {
		if b.Type != models.BlockText {
			continue
		}
		out = append(out, b)
		if len(out) == a.scope {
			break
		}
	}
	return out
}

func readResult(blocks []*models.Block) *Result {
	out := make([]ReadBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ReadBlock{
			BlockID:  b.ID,
			Type:     b.Type,
			Content:  b.Content,
			Location: b.Location,
		})
	}
	return &Result{Mode: "read", Blocks: out}
}

func analysisResult(blocks []*models.Block) *Result {
	units := make([]AnalysisUnit, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == models.BlockImage {
			units = append(units, AnalysisUnit{
				BlockID:   b.ID,
				Type:      b.Type,
				Analysis:  "vision_required_on_demand",
				Reference: b.Content,
			})
			continue
		}
		units = append(units, AnalysisUnit{
			BlockID: b.ID,
			Type:    b.Type,
			Content: b.Content,
		})
	}
	return &Result{Mode: "analysis", AnalysisUnits: units}
}
