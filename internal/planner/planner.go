// Package planner turns a validated patch intent and its resolved blocks
// into a deterministic patch plan. The planner never opens, reads, or writes
// any file; it is pure transformation, fully unit-testable without fixtures.
package planner

import (
	"fmt"

	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

// Planner produces patch plans.
type Planner struct {
	logger *zap.Logger
}

// NewPlanner creates a planner. logger may be nil.
func NewPlanner(logger *zap.Logger) *Planner {
	return &Planner{logger: logger}
}

// Plan produces one operation per input block, in input order (stable, never
// re-sorted). Operation kind is replace for surgical patch mode and
// regenerate otherwise. Each operation snapshots its block's location at
// planning time.
//
// Fails with models.ErrInvalidIntent for a non-patch intent and
// models.ErrNoTargets for an empty block list.
func (p *Planner) Plan(documentID string, it models.Intent, blocks []*models.Block) (*models.PatchPlan, error) {
	if it.Type != models.IntentPatch {
		return nil, fmt.Errorf("planner called with %s intent: %w", it.Type, models.ErrInvalidIntent)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("patch requires resolved target blocks: %w", models.ErrNoTargets)
	}

	op := models.OpRegenerate
	if it.PatchMode == models.PatchSurgical {
		op = models.OpReplace
	}

	operations := make([]models.PatchOperation, 0, len(blocks))
	for _, b := range blocks {
		operations = append(operations, models.PatchOperation{
			BlockID:        b.ID,
			Op:             op,
			RawInstruction: it.PatchInstruction,
			Location:       b.Location.Clone(),
		})
	}

	if p.logger != nil {
		p.logger.Info("patch plan created",
			zap.String("document_id", documentID),
			zap.Int("operations", len(operations)))
	}

	return &models.PatchPlan{
		DocumentID: documentID,
		Operations: operations,
		Safe:       true,
		Notes:      "surgical patch only; no regeneration unless explicitly requested",
	}, nil
}
