package tools

import (
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// TableRules bundles the curated guidance attached to one table.
type TableRules struct {
	Table           string                `json:"table"`
	Description     string                `json:"description,omitempty"`
	RequiredColumns []string              `json:"required_columns,omitempty"`
	JoinHints       []models.JoinHint     `json:"join_hints,omitempty"`
	ExampleQueries  []models.ExampleQuery `json:"example_queries,omitempty"`
	Notes           []string              `json:"notes,omitempty"`
}

// TableRuleLookup serves table guidance out of a schema snapshot.
type TableRuleLookup struct {
	logger *zap.Logger
}

// NewTableRuleLookup creates a table rule lookup.
func NewTableRuleLookup(logger *zap.Logger) *TableRuleLookup {
	return &TableRuleLookup{logger: logger.Named("table_rules")}
}

// Lookup returns the rules for a table in the given schema. A table absent
// from the schema fails with apperrors.ErrUnknownTable.
func (l *TableRuleLookup) Lookup(schema *models.SchemaMetadata, table string) (*TableRules, error) {
	if schema == nil {
		return nil, apperrors.ErrUnknownTable
	}
	tbl := schema.TableByName(table)
	if tbl == nil {
		return nil, apperrors.ErrUnknownTable
	}
	return &TableRules{
		Table:           tbl.Name,
		Description:     tbl.Description,
		RequiredColumns: tbl.RequiredColumns,
		JoinHints:       tbl.JoinHints,
		ExampleQueries:  tbl.ExampleQueries,
		Notes:           tbl.Notes,
	}, nil
}
