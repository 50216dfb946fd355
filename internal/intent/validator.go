package intent

import (
	"fmt"

	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

// Validator enforces that a request is grounded and safely scoped. It sits
// strictly before the patch planner; the planner must be unreachable with an
// invalid intent.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a validator. logger may be nil.
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate fails when no blocks resolved at all, or when a patch intent
// carries no explicit block references. Read and analyze intents with
// non-empty resolved blocks always pass.
func (v *Validator) Validate(it models.Intent, blocks []*models.Block) error {
	if len(blocks) == 0 {
		if v.logger != nil {
			v.logger.Error("validation failed: no blocks resolved")
		}
		return fmt.Errorf("no document blocks resolved for this request: %w", models.ErrNoTargets)
	}

	if it.Type == models.IntentPatch && len(it.ReferencedBlockIDs) == 0 {
		if v.logger != nil {
			v.logger.Error("validation failed: patch without block references")
		}
		return fmt.Errorf("patch operations require explicit block references: %w", models.ErrUnscoped)
	}

	if v.logger != nil {
		v.logger.Debug("validation ok",
			zap.String("intent", string(it.Type)),
			zap.Int("blocks", len(blocks)))
	}
	return nil
}
