package models

import "errors"

// Sentinel errors shared across the pipeline. Callers match with errors.Is;
// sites wrap them with fmt.Errorf("...: %w", ...) to add context.
var (
	// ErrNotFound covers a missing file, a document absent from the cache,
	// a missing block id, or a patch target text absent from its page.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat means no builder exists for a file extension.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnsupportedOperation means no handler exists for a patch
	// operation kind.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrAmbiguous means a patch target text matched more than once on its
	// page; the patcher never guesses which occurrence was intended.
	ErrAmbiguous = errors.New("ambiguous match")

	// ErrInvalidIntent means the planner was called with a non-patch intent.
	ErrInvalidIntent = errors.New("invalid intent")

	// ErrNoTargets means an instruction resolved to zero blocks.
	ErrNoTargets = errors.New("no target blocks")

	// ErrUnscoped means a patch intent carried no explicit block
	// references; patches never act on an implicitly inferred scope.
	ErrUnscoped = errors.New("patch not explicitly scoped")
)
