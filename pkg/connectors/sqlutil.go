package connectors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
)

// WrapDriverError converts a driver failure into the typed execution error,
// preserving the driver message verbatim for diagnostics.
func WrapDriverError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrExecutionTimeout, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrExecutionFailed, err)
}

// ScanRows reads up to limit rows from a database/sql result set into the
// shared tabular shape. []byte values become strings so results marshal as
// text rather than base64.
func ScanRows(ctx context.Context, rows *sql.Rows, limit int) (*QueryExecutionResult, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, WrapDriverError(ctx, err)
	}

	columns := make([]ColumnInfo, len(columnTypes))
	names := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = ColumnInfo{Name: ct.Name(), Type: ct.DatabaseTypeName()}
		names[i] = ct.Name()
	}

	result := &QueryExecutionResult{Columns: columns, Rows: []map[string]any{}}
	values := make([]any, len(names))
	pointers := make([]any, len(names))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if result.RowCount >= limit {
			break
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, WrapDriverError(ctx, err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, WrapDriverError(ctx, err)
	}
	return result, nil
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	}
	return v
}
