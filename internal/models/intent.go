package models

// IntentType classifies what the user wants to do with a document.
type IntentType string

const (
	IntentRead    IntentType = "read"
	IntentAnalyze IntentType = "analyze"
	IntentPatch   IntentType = "patch"
)

// PatchMode selects how a patch intent is applied.
type PatchMode string

const (
	// PatchSurgical changes only the referenced text occurrence.
	PatchSurgical PatchMode = "surgical"
	// PatchRegenerate rewrites an entire block.
	PatchRegenerate PatchMode = "regenerate"
	// PatchAppend adds new content after a block.
	PatchAppend PatchMode = "append"
)

// Intent is the canonical interpretation of one user instruction. It decides
// everything downstream.
type Intent struct {
	Type IntentType `json:"intent_type"`

	// ReferencedBlockIDs is the explicit block scope supplied with the
	// instruction, if any.
	ReferencedBlockIDs []string `json:"referenced_block_ids,omitempty"`

	// Optional hints
	PageHint    *int   `json:"page_hint,omitempty"`
	SectionHint string `json:"section_hint,omitempty"`

	// Patch-only fields
	PatchMode        PatchMode `json:"patch_mode,omitempty"`
	PatchInstruction string    `json:"patch_instruction,omitempty"`

	// Safety flags, both default false.
	RequiresVision    bool `json:"requires_vision"`
	AllowFullDocument bool `json:"allow_full_document"`
}
