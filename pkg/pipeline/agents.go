package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// AgentStore materializes agent configuration per request. The records are
// owned by an external management store; this interface is the read-through
// boundary.
type AgentStore interface {
	AgentByID(ctx context.Context, id uuid.UUID) (*models.Agent, error)
}

// MemoryAgentRegistry is an in-memory AgentStore for bootstrap and tests.
type MemoryAgentRegistry struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]*models.Agent
}

// NewMemoryAgentRegistry creates an empty registry.
func NewMemoryAgentRegistry() *MemoryAgentRegistry {
	return &MemoryAgentRegistry{agents: map[uuid.UUID]*models.Agent{}}
}

// Register stores (or replaces) an agent.
func (r *MemoryAgentRegistry) Register(agent *models.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = agent
}

// IDs returns the ids of all registered agents.
func (r *MemoryAgentRegistry) IDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	return ids
}

// AgentByID implements AgentStore.
func (r *MemoryAgentRegistry) AgentByID(_ context.Context, id uuid.UUID) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, apperrors.ErrUnknownAgent
	}
	return agent, nil
}

var _ AgentStore = (*MemoryAgentRegistry)(nil)
