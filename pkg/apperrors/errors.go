// Package apperrors defines the sentinel errors shared across the query pipeline.
package apperrors

import "errors"

var (
	ErrNoDatabaseConfigured = errors.New("no database configured for agent")
	ErrUnknownSource        = errors.New("unknown database source")
	ErrUnknownAgent         = errors.New("unknown agent")
	ErrUnknownTable         = errors.New("unknown table")
	ErrDuplicateName        = errors.New("name already exists")
	ErrUnknownName          = errors.New("unknown name")
	ErrGenerationFailed     = errors.New("sql generation failed")
	ErrUnsafeStatement      = errors.New("unsafe statement")
	ErrUnsafeConstruct      = errors.New("unsafe construct")
	ErrExecutionFailed      = errors.New("query execution failed")
	ErrCompletionTimeout    = errors.New("completion request timed out")
	ErrExecutionTimeout     = errors.New("query execution timed out")
)
