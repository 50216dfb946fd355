package models

// PatchOp is the kind of one atomic edit. Only OpReplace is implemented
// today; the other kinds are reserved and fail execution.
type PatchOp string

const (
	OpReplace    PatchOp = "replace"
	OpRegenerate PatchOp = "regenerate"
	OpAppend     PatchOp = "append"
)

// PatchInstruction carries the payload for a surgical text replacement.
type PatchInstruction struct {
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

// PatchOperation is one atomic edit against one block. Location is a
// snapshot of the block's location at planning time. RawInstruction is the
// user's instruction text as planned; Instruction is the structured payload
// the surrounding reasoning layer derives from it before execution.
type PatchOperation struct {
	BlockID        string           `json:"block_id"`
	Op             PatchOp          `json:"operation"`
	RawInstruction string           `json:"raw_instruction,omitempty"`
	Instruction    PatchInstruction `json:"instruction"`
	Location       BlockLocation    `json:"location"`
}

// PatchPlan is an ordered list of operations for one document. A plan is pure
// data: producing it touches no file and no cached index. It is consumed
// exactly once by the executor and is never cached.
type PatchPlan struct {
	DocumentID string           `json:"document_id"`
	Operations []PatchOperation `json:"operations"`
	Safe       bool             `json:"safe"`
	Notes      string           `json:"notes,omitempty"`
}
