// Package intent classifies free-text instructions and validates that
// requests are safely scoped before any mutation is planned.
package intent

import (
	"strings"

	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

// Keyword sets are a deliberately narrow safety surface, not a UX nicety:
// the patch path acts on the classification, so a false positive for patch
// is a correctness risk. Evaluated in fixed priority order, patch first.
var (
	patchKeywords   = []string{"change", "modify", "replace", "update", "edit"}
	analyzeKeywords = []string{"analyze", "explain", "summarize", "compare", "extract"}
	visionKeywords  = []string{"image", "screenshot"}
)

// Router determines what the user wants to do, not how. Classification is
// deterministic keyword matching; an unmatched instruction always resolves to
// the conservative read default, never dropped.
type Router struct {
	logger *zap.Logger
}

// NewRouter creates a router. logger may be nil.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{logger: logger}
}

// Route classifies one instruction into exactly one intent.
// referencedBlockIDs is the explicit block scope supplied with the
// instruction, if any.
func (r *Router) Route(query string, referencedBlockIDs []string) models.Intent {
	text := strings.ToLower(strings.TrimSpace(query))

	if containsAny(text, patchKeywords) {
		r.debug("patch")
		return models.Intent{
			Type:               models.IntentPatch,
			ReferencedBlockIDs: referencedBlockIDs,
			PatchMode:          models.PatchSurgical,
			PatchInstruction:   query,
		}
	}

	if containsAny(text, analyzeKeywords) {
		r.debug("analyze")
		return models.Intent{
			Type:               models.IntentAnalyze,
			ReferencedBlockIDs: referencedBlockIDs,
			RequiresVision:     containsAny(text, visionKeywords),
		}
	}

	r.debug("read")
	return models.Intent{
		Type:               models.IntentRead,
		ReferencedBlockIDs: referencedBlockIDs,
	}
}

func (r *Router) debug(kind string) {
	if r.logger != nil {
		r.logger.Debug("intent routed", zap.String("intent", kind))
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
