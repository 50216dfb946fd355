package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/naosu/internal/cache"
	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

// Executor applies a patch plan sequentially: each operation reads the
// previous operation's output, and only the last intermediate is renamed to
// the requested output path. A failed run therefore never leaves a
// half-applied plan at the final path; intermediates from a failed run stay
// behind for external cleanup.
//
// Two concurrent executions against the same document id racing on the same
// output path are unsafe; callers serialize patch requests per document.
type Executor struct {
	cache   *cache.IndexCache
	patcher *Patcher
	logger  *zap.Logger
}

// NewExecutor creates an executor resolving indices from the given cache.
func NewExecutor(c *cache.IndexCache, patcher *Patcher, logger *zap.Logger) *Executor {
	return &Executor{cache: c, patcher: patcher, logger: logger}
}

// Execute applies every operation of the plan in order and returns the final
// output path. The input file is never mutated. Fails fast on the first
// operation failure; only replace operations are supported today.
func (e *Executor) Execute(plan *models.PatchPlan, inputPath, outputPath string) (string, error) {
	if len(plan.Operations) == 0 {
		return "", fmt.Errorf("plan for %s has no operations: %w", plan.DocumentID, models.ErrNoTargets)
	}
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("input %s: %w", inputPath, models.ErrNotFound)
	}

	index, err := e.cache.Get(plan.DocumentID)
	if err != nil {
		return "", fmt.Errorf("resolve plan document: %w", err)
	}

	e.logger.Info("patch plan execution start",
		zap.String("document_id", plan.DocumentID),
		zap.Int("operations", len(plan.Operations)))

	current := inputPath
	for i, op := range plan.Operations {
		e.logger.Info("patch plan step",
			zap.Int("step", i+1),
			zap.String("block_id", op.BlockID),
			zap.String("operation", string(op.Op)))

		if op.Op != models.OpReplace {
			return "", fmt.Errorf("operation %q: %w", op.Op, models.ErrUnsupportedOperation)
		}
		block, err := index.GetBlock(op.BlockID)
		if err != nil {
			return "", fmt.Errorf("step %d: %w", i+1, err)
		}

		stepOut := stepPath(outputPath, i+1)
		if err := e.patcher.Apply(current, stepOut, block, op.Instruction); err != nil {
			return "", fmt.Errorf("step %d (block %s): %w", i+1, op.BlockID, err)
		}
		current = stepOut
	}

	// The requested name appears exactly once, at the very end.
	if err := os.Rename(current, outputPath); err != nil {
		return "", fmt.Errorf("finalize output: %w", err)
	}
	for i := 1; i < len(plan.Operations); i++ {
		os.Remove(stepPath(outputPath, i))
	}

	e.logger.Info("patch plan execution complete",
		zap.String("output", filepath.Base(outputPath)))
	return outputPath, nil
}

// stepPath names the intermediate output of one plan step.
func stepPath(outputPath string, step int) string {
	ext := filepath.Ext(outputPath)
	base := strings.TrimSuffix(outputPath, ext)
	return fmt.Sprintf("%s.step%d%s", base, step, ext)
}
