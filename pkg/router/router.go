// Package router selects the target database source for a question among an
// agent's registered sources.
package router

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/catalog"
	"github.com/rickey-cpu/AIQuery/pkg/models"
	"github.com/rickey-cpu/AIQuery/pkg/tools"
)

// term-overlap weights for auto routing
const (
	weightTableExact  = 3
	weightTableSub    = 2
	weightColumnExact = 1
	weightEntity      = 2
)

// Router picks a database source for a question. Routing is deterministic:
// identical inputs against an unchanged catalog always route identically.
type Router struct {
	schemas *catalog.SchemaCatalog
	layer   *catalog.SemanticLayer
	logger  *zap.Logger
}

// New creates a router over the schema catalog and semantic layer.
func New(schemas *catalog.SchemaCatalog, layer *catalog.SemanticLayer, logger *zap.Logger) *Router {
	return &Router{schemas: schemas, layer: layer, logger: logger.Named("router")}
}

// Route selects a source with the precedence: explicit source id, auto-route
// term scoring, agent default. An agent with no sources fails with
// apperrors.ErrNoDatabaseConfigured; an explicit id the agent does not own
// fails with apperrors.ErrUnknownSource.
func (r *Router) Route(agent *models.Agent, question string, explicitSourceID *uuid.UUID) (*models.DatabaseSource, error) {
	if len(agent.Databases) == 0 {
		return nil, apperrors.ErrNoDatabaseConfigured
	}

	if explicitSourceID != nil {
		src := agent.DatabaseByID(*explicitSourceID)
		if src == nil {
			return nil, apperrors.ErrUnknownSource
		}
		return src, nil
	}

	if agent.AutoRoute && len(agent.Databases) > 1 {
		return r.routeByScore(agent, question), nil
	}

	return agent.DefaultDatabase(), nil
}

// routeByScore scores every owned source by term overlap with its schema.
// Ties go to the default source, then to declaration order.
func (r *Router) routeByScore(agent *models.Agent, question string) *models.DatabaseSource {
	terms := tools.ExtractTerms(question)

	best := agent.Databases[0]
	bestScore := r.scoreSource(agent, best, terms)
	for _, src := range agent.Databases[1:] {
		score := r.scoreSource(agent, src, terms)
		if score > bestScore || (score == bestScore && src.IsDefault && !best.IsDefault) {
			best, bestScore = src, score
		}
	}

	r.logger.Debug("auto routed",
		zap.String("agent_id", agent.ID.String()),
		zap.String("source", best.Name),
		zap.Int("score", bestScore))
	return best
}

func (r *Router) scoreSource(agent *models.Agent, src *models.DatabaseSource, terms []string) int {
	meta, err := r.schemas.Describe(src.ID)
	if err != nil {
		return 0
	}

	tableNames := map[string]struct{}{}
	columnNames := map[string]struct{}{}
	for ti := range meta.Tables {
		tableNames[strings.ToLower(meta.Tables[ti].Name)] = struct{}{}
		for ci := range meta.Tables[ti].Columns {
			columnNames[strings.ToLower(meta.Tables[ti].Columns[ci].Name)] = struct{}{}
		}
	}

	score := 0
	for _, term := range terms {
		if _, ok := tableNames[term]; ok {
			score += weightTableExact
			continue
		}
		sub := false
		for name := range tableNames {
			if strings.Contains(name, term) {
				score += weightTableSub
				sub = true
				break
			}
		}
		if sub {
			continue
		}
		if _, ok := columnNames[term]; ok {
			score += weightColumnExact
			continue
		}
		if entity := r.layer.ResolveEntity(agent.ID, term); entity != nil {
			if _, ok := tableNames[strings.ToLower(entity.Table)]; ok {
				score += weightEntity
			}
		}
	}
	return score
}
