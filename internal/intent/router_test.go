package intent

import (
	"testing"

	"github.com/hyperjump/naosu/internal/models"
	"go.uber.org/zap"
)

func TestRouteClassification(t *testing.T) {
	r := NewRouter(zap.NewNop())

	tests := []struct {
		query  string
		want   models.IntentType
		vision bool
	}{
		{"please change the title to Quarterly Report", models.IntentPatch, false},
		{"Replace the second paragraph", models.IntentPatch, false},
		{"update figure 3 caption", models.IntentPatch, false},
		{"modify the header", models.IntentPatch, false},
		{"edit the summary section", models.IntentPatch, false},
		{"summarize this document", models.IntentAnalyze, false},
		{"analyze the revenue table", models.IntentAnalyze, false},
		{"explain the chart image on page 2", models.IntentAnalyze, true},
		{"compare sections one and two", models.IntentAnalyze, false},
		{"extract the key figures", models.IntentAnalyze, false},
		{"hello", models.IntentRead, false},
		{"what does this say", models.IntentRead, false},
		{"", models.IntentRead, false},
	}
	for _, tt := range tests {
		got := r.Route(tt.query, nil)
		if got.Type != tt.want {
			t.Errorf("Route(%q) = %s, want %s", tt.query, got.Type, tt.want)
		}
		if got.RequiresVision != tt.vision {
			t.Errorf("Route(%q) vision = %v, want %v", tt.query, got.RequiresVision, tt.vision)
		}
	}
}

// Patch wins when an instruction matches both patch and analyze keywords.
func TestRoutePatchTakesPriority(t *testing.T) {
	r := NewRouter(nil)
	got := r.Route("analyze the table and update the totals", nil)
	if got.Type != models.IntentPatch {
		t.Errorf("intent = %s, want patch", got.Type)
	}
}

func TestRoutePatchDefaults(t *testing.T) {
	r := NewRouter(nil)
	refs := []string{"pdf:report.pdf:p1:b0:l0:s0"}
	got := r.Route("change the total to 500", refs)

	if got.PatchMode != models.PatchSurgical {
		t.Errorf("mode = %s, want surgical default", got.PatchMode)
	}
	if got.PatchInstruction != "change the total to 500" {
		t.Errorf("instruction = %q", got.PatchInstruction)
	}
	if len(got.ReferencedBlockIDs) != 1 || got.ReferencedBlockIDs[0] != refs[0] {
		t.Errorf("refs = %v", got.ReferencedBlockIDs)
	}
}

func TestRouteCaseInsensitive(t *testing.T) {
	r := NewRouter(nil)
	if got := r.Route("CHANGE the heading", nil); got.Type != models.IntentPatch {
		t.Errorf("intent = %s, want patch", got.Type)
	}
	if got := r.Route("  Summarize it  ", nil); got.Type != models.IntentAnalyze {
		t.Errorf("intent = %s, want analyze", got.Type)
	}
}
