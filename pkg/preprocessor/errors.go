package preprocessor

import (
	"errors"
)

// Error categories. Callers branch on these with errors.Is; the wrapped
// message carries the line and detail.
var (
	// ErrInvalidArgument flags malformed directives, malformed constant
	// expressions and bad registration input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound flags a scan target that does not exist on disk.
	// Include targets that fail to resolve are not errors; they are
	// skipped (see Resolver).
	ErrNotFound = errors.New("not found")

	// ErrTokenize flags source text the tokenizer could not process.
	ErrTokenize = errors.New("tokenize failure")
)
