package catalog

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// match tiers for term resolution, highest wins
const (
	matchExact    = 3
	matchSynonym  = 2
	matchContains = 1
)

type semanticSnapshot struct {
	entities []*models.SemanticEntity
	metrics  []*models.SemanticMetric
	aliases  []*models.ValueAlias
}

// SemanticLayer is the per-agent dictionary mapping business vocabulary to
// tables, SQL expressions, and stored values. Entity and metric names are
// unique within an agent; resolution is case-insensitive over names and
// synonyms.
type SemanticLayer struct {
	logger *zap.Logger

	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[semanticSnapshot]
}

// NewSemanticLayer creates an empty semantic layer.
func NewSemanticLayer(logger *zap.Logger) *SemanticLayer {
	l := &SemanticLayer{logger: logger.Named("semantic_layer")}
	l.snap.Store(&semanticSnapshot{})
	return l
}

// CreateEntity adds an entity. Name collision within the same agent
// (case-insensitive) fails with apperrors.ErrDuplicateName.
func (l *SemanticLayer) CreateEntity(entity *models.SemanticEntity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.snap.Load()
	for _, e := range old.entities {
		if e.AgentID == entity.AgentID && strings.EqualFold(e.Name, entity.Name) {
			return apperrors.ErrDuplicateName
		}
	}
	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}

	next := cloneSnapshot(old)
	next.entities = append(next.entities, entity)
	l.snap.Store(next)

	l.logger.Debug("entity created",
		zap.String("agent_id", entity.AgentID.String()),
		zap.String("name", entity.Name))
	return nil
}

// UpdateEntity replaces the entity with the same id. Renaming onto another
// entity's name fails with apperrors.ErrDuplicateName; an unknown id fails
// with apperrors.ErrUnknownName.
func (l *SemanticLayer) UpdateEntity(entity *models.SemanticEntity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.snap.Load()
	idx := -1
	for i, e := range old.entities {
		if e.ID == entity.ID {
			idx = i
			continue
		}
		if e.AgentID == entity.AgentID && strings.EqualFold(e.Name, entity.Name) {
			return apperrors.ErrDuplicateName
		}
	}
	if idx < 0 {
		return apperrors.ErrUnknownName
	}

	next := cloneSnapshot(old)
	next.entities[idx] = entity
	l.snap.Store(next)
	return nil
}

// DeleteEntity removes the named entity for an agent. Deleting an absent
// name is a no-op success.
func (l *SemanticLayer) DeleteEntity(agentID uuid.UUID, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.snap.Load()
	next := cloneSnapshot(old)
	next.entities = next.entities[:0]
	for _, e := range old.entities {
		if e.AgentID == agentID && strings.EqualFold(e.Name, name) {
			continue
		}
		next.entities = append(next.entities, e)
	}
	l.snap.Store(next)
}

// CreateMetric adds a metric, enforcing per-agent name uniqueness.
func (l *SemanticLayer) CreateMetric(metric *models.SemanticMetric) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.snap.Load()
	for _, m := range old.metrics {
		if m.AgentID == metric.AgentID && strings.EqualFold(m.Name, metric.Name) {
			return apperrors.ErrDuplicateName
		}
	}
	if metric.ID == uuid.Nil {
		metric.ID = uuid.New()
	}

	next := cloneSnapshot(old)
	next.metrics = append(next.metrics, metric)
	l.snap.Store(next)

	l.logger.Debug("metric created",
		zap.String("agent_id", metric.AgentID.String()),
		zap.String("name", metric.Name))
	return nil
}

// UpdateMetric replaces the metric with the same id, enforcing per-agent
// name uniqueness against the other metrics.
func (l *SemanticLayer) UpdateMetric(metric *models.SemanticMetric) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.snap.Load()
	idx := -1
	for i, m := range old.metrics {
		if m.ID == metric.ID {
			idx = i
			continue
		}
		if m.AgentID == metric.AgentID && strings.EqualFold(m.Name, metric.Name) {
			return apperrors.ErrDuplicateName
		}
	}
	if idx < 0 {
		return apperrors.ErrUnknownName
	}

	next := cloneSnapshot(old)
	next.metrics[idx] = metric
	l.snap.Store(next)
	return nil
}

// DeleteMetric removes the named metric for an agent. Idempotent.
func (l *SemanticLayer) DeleteMetric(agentID uuid.UUID, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.snap.Load()
	next := cloneSnapshot(old)
	next.metrics = next.metrics[:0]
	for _, m := range old.metrics {
		if m.AgentID == agentID && strings.EqualFold(m.Name, name) {
			continue
		}
		next.metrics = append(next.metrics, m)
	}
	l.snap.Store(next)
}

// AddValueAlias registers a value alias for an agent-independent column
// mapping. Duplicate aliases replace the earlier mapping.
func (l *SemanticLayer) AddValueAlias(alias *models.ValueAlias) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.snap.Load()
	next := cloneSnapshot(old)
	replaced := false
	for i, a := range next.aliases {
		if strings.EqualFold(a.Alias, alias.Alias) && strings.EqualFold(a.Column, alias.Column) {
			next.aliases[i] = alias
			replaced = true
			break
		}
	}
	if !replaced {
		next.aliases = append(next.aliases, alias)
	}
	l.snap.Store(next)
}

// ResolveEntity resolves a term to an entity for an agent, or nil when
// nothing matches. Exact name matches beat synonym matches beat substring
// matches; remaining ties go to the shortest backing table name.
func (l *SemanticLayer) ResolveEntity(agentID uuid.UUID, term string) *models.SemanticEntity {
	snap := l.snap.Load()
	var (
		best     *models.SemanticEntity
		bestTier int
	)
	for _, e := range snap.entities {
		if e.AgentID != agentID {
			continue
		}
		tier := matchTier(term, e.Name, e.Synonyms)
		if tier == 0 {
			continue
		}
		if best == nil || tier > bestTier ||
			(tier == bestTier && len(e.Table) < len(best.Table)) {
			best, bestTier = e, tier
		}
	}
	return best
}

// ResolveMetric resolves a term to a metric for an agent, or nil.
func (l *SemanticLayer) ResolveMetric(agentID uuid.UUID, term string) *models.SemanticMetric {
	snap := l.snap.Load()
	var (
		best     *models.SemanticMetric
		bestTier int
	)
	for _, m := range snap.metrics {
		if m.AgentID != agentID {
			continue
		}
		tier := matchTier(term, m.Name, m.Synonyms)
		if tier == 0 {
			continue
		}
		if best == nil || tier > bestTier ||
			(tier == bestTier && len(m.Table) < len(best.Table)) {
			best, bestTier = m, tier
		}
	}
	return best
}

// ResolveValueAlias resolves a user-facing alias to its stored value
// mapping. The second return is false when the alias is unknown.
func (l *SemanticLayer) ResolveValueAlias(alias string) (*models.ValueAlias, bool) {
	snap := l.snap.Load()
	lower := strings.ToLower(strings.TrimSpace(alias))

	// exact alias match first
	for _, a := range snap.aliases {
		if strings.ToLower(a.Alias) == lower {
			return a, true
		}
	}
	// then partial, preferring the shortest alias that contains the term
	var candidates []*models.ValueAlias
	for _, a := range snap.aliases {
		al := strings.ToLower(a.Alias)
		if strings.Contains(al, lower) || strings.Contains(lower, al) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Alias) < len(candidates[j].Alias)
	})
	return candidates[0], true
}

// EntitiesForAgent returns the agent's entities in declaration order.
func (l *SemanticLayer) EntitiesForAgent(agentID uuid.UUID) []*models.SemanticEntity {
	snap := l.snap.Load()
	var out []*models.SemanticEntity
	for _, e := range snap.entities {
		if e.AgentID == agentID {
			out = append(out, e)
		}
	}
	return out
}

// MetricsForAgent returns the agent's metrics in declaration order.
func (l *SemanticLayer) MetricsForAgent(agentID uuid.UUID) []*models.SemanticMetric {
	snap := l.snap.Load()
	var out []*models.SemanticMetric
	for _, m := range snap.metrics {
		if m.AgentID == agentID {
			out = append(out, m)
		}
	}
	return out
}

func matchTier(term, name string, synonyms []string) int {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return 0
	}
	n := strings.ToLower(name)
	if t == n {
		return matchExact
	}
	for _, s := range synonyms {
		if t == strings.ToLower(s) {
			return matchSynonym
		}
	}
	if strings.Contains(n, t) || strings.Contains(t, n) {
		return matchContains
	}
	return 0
}

func cloneSnapshot(old *semanticSnapshot) *semanticSnapshot {
	next := &semanticSnapshot{
		entities: make([]*models.SemanticEntity, len(old.entities)),
		metrics:  make([]*models.SemanticMetric, len(old.metrics)),
		aliases:  make([]*models.ValueAlias, len(old.aliases)),
	}
	copy(next.entities, old.entities)
	copy(next.metrics, old.metrics)
	copy(next.aliases, old.aliases)
	return next
}
