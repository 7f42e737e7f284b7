package tools

import (
	"strings"

	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/catalog"
)

// ValueResolution is the outcome of resolving a user-facing alias to stored
// column values. Found=false is a valid, non-error outcome: the synthesizer
// falls back to treating the alias as literal text.
type ValueResolution struct {
	Alias       string   `json:"alias"`
	Column      string   `json:"column,omitempty"`
	Table       string   `json:"table,omitempty"`
	Values      []string `json:"values,omitempty"`
	Description string   `json:"description,omitempty"`
	Found       bool     `json:"found"`
	MatchType   string   `json:"match_type,omitempty"` // "exact" or "partial"
}

// ValueResolver maps user phrasing to the literal values stored in columns.
type ValueResolver struct {
	layer  *catalog.SemanticLayer
	logger *zap.Logger
}

// NewValueResolver creates a value resolver over the semantic layer.
func NewValueResolver(layer *catalog.SemanticLayer, logger *zap.Logger) *ValueResolver {
	return &ValueResolver{layer: layer, logger: logger.Named("value_resolver")}
}

// Resolve looks up an alias. Unknown aliases come back with Found=false and
// the raw alias echoed so the caller can use it verbatim.
func (r *ValueResolver) Resolve(alias string) ValueResolution {
	mapping, found := r.layer.ResolveValueAlias(alias)
	if !found {
		return ValueResolution{Alias: alias, Found: false}
	}

	matchType := "partial"
	if strings.EqualFold(strings.TrimSpace(alias), mapping.Alias) {
		matchType = "exact"
	}
	return ValueResolution{
		Alias:       alias,
		Column:      mapping.Column,
		Table:       mapping.Table,
		Values:      mapping.Values,
		Description: mapping.Description,
		Found:       true,
		MatchType:   matchType,
	}
}
