package connectors

import (
	"context"
	"sync"

	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// AdapterInfo describes a registered dialect for discovery.
type AdapterInfo struct {
	Type        models.DBType `json:"type"`
	DisplayName string        `json:"display_name"`
	Description string        `json:"description"`
}

// Registration bundles a dialect's info with its factories.
type Registration struct {
	Info            AdapterInfo
	ExecutorFactory func(ctx context.Context, source *models.DatabaseSource) (QueryExecutor, error)
	SchemaFactory   func(ctx context.Context, source *models.DatabaseSource) (SchemaExtractor, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[models.DBType]Registration)
)

// Register is called by each dialect package's init(). Thread-safe for
// concurrent init calls.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for every compiled-in dialect.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// IsRegistered checks whether a dialect is compiled in.
func IsRegistered(dbType models.DBType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dbType]
	return ok
}

func lookup(dbType models.DBType) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[dbType]
	return reg, ok
}
