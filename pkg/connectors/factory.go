package connectors

import (
	"context"
	"fmt"

	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// Factory creates executors and schema extractors from the registry. It is
// an interface so pipeline tests can substitute fakes.
type Factory interface {
	// NewExecutor creates a query executor for the source's dialect.
	NewExecutor(ctx context.Context, source *models.DatabaseSource) (QueryExecutor, error)

	// NewSchemaExtractor creates a schema extractor for the source's dialect.
	NewSchemaExtractor(ctx context.Context, source *models.DatabaseSource) (SchemaExtractor, error)

	// ListTypes returns info for all compiled-in dialects.
	ListTypes() []AdapterInfo
}

type registryFactory struct{}

// NewFactory returns a Factory backed by the global registry.
func NewFactory() Factory {
	return &registryFactory{}
}

func (f *registryFactory) NewExecutor(ctx context.Context, source *models.DatabaseSource) (QueryExecutor, error) {
	reg, ok := lookup(source.DBType)
	if !ok || reg.ExecutorFactory == nil {
		return nil, fmt.Errorf("unsupported db_type: %s (not compiled in)", source.DBType)
	}
	return reg.ExecutorFactory(ctx, source)
}

func (f *registryFactory) NewSchemaExtractor(ctx context.Context, source *models.DatabaseSource) (SchemaExtractor, error) {
	reg, ok := lookup(source.DBType)
	if !ok || reg.SchemaFactory == nil {
		return nil, fmt.Errorf("schema extraction not supported for db_type: %s", source.DBType)
	}
	return reg.SchemaFactory(ctx, source)
}

func (f *registryFactory) ListTypes() []AdapterInfo {
	return RegisteredAdapters()
}

var _ Factory = (*registryFactory)(nil)
