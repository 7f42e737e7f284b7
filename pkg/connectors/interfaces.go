// Package connectors defines the executor and schema-extraction contracts
// for the supported backends, plus the registry per-dialect packages
// register themselves into.
package connectors

import (
	"context"

	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// ColumnInfo describes one result column with its backend type name.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryExecutionResult is the tabular result of one bounded query. Search
// backends return the same shape with flattened documents as rows.
type QueryExecutionResult struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// QueryExecutor runs validated read-only queries against one source.
// Each implementation owns its connection and must be closed when done.
type QueryExecutor interface {
	// Query runs a validated statement and returns bounded results. The
	// row scan stops at limit regardless of what the statement returns;
	// limit <= 0 or above MaxQueryLimit falls back to MaxQueryLimit.
	// Driver failures wrap apperrors.ErrExecutionFailed (or
	// apperrors.ErrExecutionTimeout on deadline) and are never retried.
	Query(ctx context.Context, query string, limit int) (*QueryExecutionResult, error)

	// TestConnection verifies the source is reachable with the configured
	// credentials.
	TestConnection(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// SchemaExtractor reads the live schema of one source for catalog refresh.
type SchemaExtractor interface {
	// Extract returns the source's current table metadata.
	Extract(ctx context.Context) (*models.SchemaMetadata, error)

	// Close releases the underlying connection.
	Close() error
}

// MaxQueryLimit is the hard cap on rows returned by Query. Protects
// against unbounded statements slipping past validation.
const MaxQueryLimit = 1000

// ClampLimit normalizes a requested row limit into (0, MaxQueryLimit].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
