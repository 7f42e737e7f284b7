// Package tools holds the deterministic lookup tools invoked during query
// synthesis. Each tool is a read-only function over the schema catalog and
// semantic layer, safe to call any number of times per request.
package tools

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/catalog"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

const maxColumnCandidates = 5

// ColumnCandidate is one ranked column match for a question term.
type ColumnCandidate struct {
	Table    string  `json:"table"`
	Column   string  `json:"column"`
	DataType string  `json:"data_type"`
	Score    float64 `json:"score"`

	// Expression is set when the candidate came from a semantic metric
	// rather than a physical column.
	Expression string `json:"expression,omitempty"`
}

// ColumnResolver ranks schema columns against question terms. An empty
// result is a valid outcome, not an error.
type ColumnResolver struct {
	layer  *catalog.SemanticLayer
	logger *zap.Logger
}

// NewColumnResolver creates a column resolver over the semantic layer.
func NewColumnResolver(layer *catalog.SemanticLayer, logger *zap.Logger) *ColumnResolver {
	return &ColumnResolver{layer: layer, logger: logger.Named("column_resolver")}
}

// Resolve returns up to five column candidates for a term, ranked by score:
// 1.0 for an exact column or semantic match, 0.7 for a substring match, up
// to 0.5 for word overlap.
func (r *ColumnResolver) Resolve(agentID uuid.UUID, schema *models.SchemaMetadata, term string) []ColumnCandidate {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" || schema == nil {
		return nil
	}

	type key struct{ table, column string }
	seen := map[key]int{} // key -> index into candidates
	var candidates []ColumnCandidate

	add := func(c ColumnCandidate) {
		k := key{c.Table, c.Column}
		if i, ok := seen[k]; ok {
			if c.Score > candidates[i].Score {
				candidates[i] = c
			}
			return
		}
		seen[k] = len(candidates)
		candidates = append(candidates, c)
	}

	// semantic metric first: an exact metric hit outranks physical columns
	if metric := r.layer.ResolveMetric(agentID, term); metric != nil {
		add(ColumnCandidate{
			Table:      metric.Table,
			Column:     metric.Name,
			Expression: metric.Expression,
			Score:      1.0,
		})
	}
	if entity := r.layer.ResolveEntity(agentID, term); entity != nil && entity.PrimaryKey != "" {
		if tbl := schema.TableByName(entity.Table); tbl != nil {
			if col := tbl.ColumnByName(entity.PrimaryKey); col != nil {
				add(ColumnCandidate{Table: tbl.Name, Column: col.Name, DataType: col.DataType, Score: 1.0})
			}
		}
	}

	for ti := range schema.Tables {
		tbl := &schema.Tables[ti]
		for ci := range tbl.Columns {
			col := &tbl.Columns[ci]
			score := columnScore(t, strings.ToLower(col.Name))
			if score > 0 {
				add(ColumnCandidate{Table: tbl.Name, Column: col.Name, DataType: col.DataType, Score: score})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxColumnCandidates {
		candidates = candidates[:maxColumnCandidates]
	}
	return candidates
}

// columnScore rates a lowercase term against a lowercase column name:
// exact 1.0, substring 0.7, word overlap scaled to at most 0.5.
func columnScore(term, column string) float64 {
	if term == column {
		return 1.0
	}
	if strings.Contains(column, term) || strings.Contains(term, column) {
		return 0.7
	}

	termWords := splitWords(term)
	colWords := splitWords(column)
	if len(termWords) == 0 || len(colWords) == 0 {
		return 0
	}
	overlap := 0
	for _, tw := range termWords {
		for _, cw := range colWords {
			if tw == cw {
				overlap++
				break
			}
		}
	}
	if overlap == 0 {
		return 0
	}
	denom := len(termWords)
	if len(colWords) > denom {
		denom = len(colWords)
	}
	return 0.5 * float64(overlap) / float64(denom)
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == ' ' || r == '-'
	})
}
