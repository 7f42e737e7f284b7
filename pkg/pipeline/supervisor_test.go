package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/catalog"
	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/examples"
	"github.com/rickey-cpu/AIQuery/pkg/history"
	"github.com/rickey-cpu/AIQuery/pkg/intent"
	"github.com/rickey-cpu/AIQuery/pkg/llm"
	"github.com/rickey-cpu/AIQuery/pkg/models"
	"github.com/rickey-cpu/AIQuery/pkg/router"
	"github.com/rickey-cpu/AIQuery/pkg/sqlcheck"
	"github.com/rickey-cpu/AIQuery/pkg/synth"
)

type fakeExecutor struct {
	queries []string
	limits  []int
	result  *connectors.QueryExecutionResult
	err     error
	closed  bool
}

func (e *fakeExecutor) Query(_ context.Context, query string, limit int) (*connectors.QueryExecutionResult, error) {
	e.queries = append(e.queries, query)
	e.limits = append(e.limits, limit)
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func (e *fakeExecutor) TestConnection(context.Context) error { return nil }

func (e *fakeExecutor) Close() error {
	e.closed = true
	return nil
}

type fakeExtractor struct {
	schema *models.SchemaMetadata
}

func (e *fakeExtractor) Extract(context.Context) (*models.SchemaMetadata, error) {
	return e.schema, nil
}

func (e *fakeExtractor) Close() error { return nil }

type fakeFactory struct {
	executor      *fakeExecutor
	extractor     *fakeExtractor
	executorCalls int
	extractCalls  int
}

func (f *fakeFactory) NewExecutor(_ context.Context, _ *models.DatabaseSource) (connectors.QueryExecutor, error) {
	f.executorCalls++
	return f.executor, nil
}

func (f *fakeFactory) NewSchemaExtractor(_ context.Context, _ *models.DatabaseSource) (connectors.SchemaExtractor, error) {
	f.extractCalls++
	return f.extractor, nil
}

func (f *fakeFactory) ListTypes() []connectors.AdapterInfo { return nil }

type pipelineFixture struct {
	sup       *Supervisor
	mock      *llm.MockClient
	factory   *fakeFactory
	schemas   *catalog.SchemaCatalog
	agentID   uuid.UUID
	salesID   uuid.UUID
	archiveID uuid.UUID
}

// completeWith answers classification prompts with a fixed intent and every
// other prompt with the given payload.
func completeWith(payload string) func(context.Context, string, string) (string, error) {
	return func(_ context.Context, _ string, system string) (string, error) {
		if strings.Contains(system, "classify") {
			return `{"intent": "data_retrieval", "query_type": "select"}`, nil
		}
		return payload, nil
	}
}

const hanoiPayload = `{"sql": "SELECT name, city FROM customers WHERE city = 'Hanoi'", "explanation": "Customers located in Hanoi."}`

func newFixture(t *testing.T, cacheTTL time.Duration) *pipelineFixture {
	t.Helper()
	logger := zap.NewNop()

	agentID := uuid.New()
	salesID := uuid.New()
	archiveID := uuid.New()

	layer := catalog.NewSemanticLayer(logger)
	require.NoError(t, catalog.ApplySeed(catalog.DefaultSeed(), agentID, layer))

	schemas := catalog.NewSchemaCatalog(logger)
	schemas.Publish(catalog.DefaultSchema(salesID))
	schemas.Publish(catalog.DefaultSchema(archiveID))

	agents := NewMemoryAgentRegistry()
	agents.Register(&models.Agent{
		ID:   agentID,
		Name: "sales-assistant",
		Databases: []*models.DatabaseSource{
			{ID: salesID, Name: "sales", DBType: models.DBTypeSQLite, Database: "sales.db", IsDefault: true},
			{ID: archiveID, Name: "archive", DBType: models.DBTypeSQLite, Database: "archive.db"},
		},
		IsActive: true,
	})

	mock := llm.NewMockClient()
	mock.CompleteFunc = completeWith(hanoiPayload)

	factory := &fakeFactory{
		executor: &fakeExecutor{
			result: &connectors.QueryExecutionResult{
				Columns:  []connectors.ColumnInfo{{Name: "name", Type: "TEXT"}, {Name: "city", Type: "TEXT"}},
				Rows:     []map[string]any{{"name": "Lan Pham", "city": "Hanoi"}},
				RowCount: 1,
			},
		},
		extractor: &fakeExtractor{},
	}

	sup := New(Deps{
		Agents:           agents,
		Classifier:       intent.NewClassifier(mock, logger),
		Router:           router.New(schemas, layer, logger),
		Schemas:          schemas,
		Synth:            synth.New(mock, examples.NewIndex(logger), layer, 3, logger),
		Validator:        sqlcheck.New(1000, logger),
		Factory:          factory,
		History:          history.NewMemoryStore(),
		ExecutionTimeout: time.Second,
		CacheTTL:         cacheTTL,
		Logger:           logger,
	})

	return &pipelineFixture{
		sup:       sup,
		mock:      mock,
		factory:   factory,
		schemas:   schemas,
		agentID:   agentID,
		salesID:   salesID,
		archiveID: archiveID,
	}
}

func TestResolveQuery_EndToEnd(t *testing.T) {
	f := newFixture(t, 0)

	result := f.sup.ResolveQuery(context.Background(), Request{
		Question: "Which customers are in HN?",
		AgentID:  f.agentID,
		Execute:  true,
	})

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "Which customers are in HN?", result.Question)
	assert.Equal(t, "data_retrieval", result.IntentType)
	assert.Contains(t, result.SQL, "FROM customers")
	assert.Contains(t, result.SQL, "LIMIT 1000")
	require.NotNil(t, result.DatabaseUsed)
	assert.Equal(t, "sales", result.DatabaseUsed.Name)
	assert.Equal(t, "sqlite", result.DatabaseUsed.Type)
	require.NotNil(t, result.Data)
	assert.Equal(t, 1, result.Data.RowCount)
	assert.Equal(t, []string{"name", "city"}, result.Data.Columns)

	require.Len(t, f.factory.executor.queries, 1)
	assert.Equal(t, result.SQL, f.factory.executor.queries[0])
	assert.Equal(t, 1000, f.factory.executor.limits[0])
	assert.True(t, f.factory.executor.closed)
}

func TestResolveQuery_ValidateOnlySkipsExecution(t *testing.T) {
	f := newFixture(t, 0)

	result := f.sup.ResolveQuery(context.Background(), Request{
		Question: "Which customers are in Hanoi?",
		AgentID:  f.agentID,
		Execute:  false,
	})

	require.True(t, result.Success, "error: %s", result.Error)
	assert.NotEmpty(t, result.SQL)
	assert.Nil(t, result.Data)
	assert.Zero(t, f.factory.executorCalls)
}

func TestResolveQuery_NoDatabaseConfigured(t *testing.T) {
	f := newFixture(t, 0)
	bareID := uuid.New()
	f.sup.deps.Agents.(*MemoryAgentRegistry).Register(&models.Agent{
		ID:   bareID,
		Name: "bare",
	})

	result := f.sup.ResolveQuery(context.Background(), Request{
		Question: "Which customers are in Hanoi?",
		AgentID:  bareID,
		Execute:  true,
	})

	assert.False(t, result.Success)
	assert.Nil(t, result.Data)
	assert.NotEmpty(t, result.Explanation)
	assert.Contains(t, result.Error, "routing")
	assert.Zero(t, f.factory.executorCalls)
}

func TestResolveQuery_UnknownAgent(t *testing.T) {
	f := newFixture(t, 0)

	result := f.sup.ResolveQuery(context.Background(), Request{
		Question: "Which customers are in Hanoi?",
		AgentID:  uuid.New(),
		Execute:  true,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Explanation, "agent")
	assert.Contains(t, result.Error, "routing")
}

func TestResolveQuery_RejectsModifyingStatement(t *testing.T) {
	f := newFixture(t, 0)
	f.mock.CompleteFunc = completeWith(`{"sql": "DELETE FROM orders", "explanation": "Remove all orders."}`)

	result := f.sup.ResolveQuery(context.Background(), Request{
		Question: "Show all orders",
		AgentID:  f.agentID,
		Execute:  true,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validating")
	assert.Contains(t, result.Explanation, "read-only")
	assert.Zero(t, f.factory.executorCalls, "rejected statements must never reach an executor")
}

func TestResolveQuery_LowConfidenceClarification(t *testing.T) {
	f := newFixture(t, 0)

	result := f.sup.ResolveQuery(context.Background(), Request{
		Question: "fnord blorp wibble",
		AgentID:  f.agentID,
		Execute:  true,
	})

	assert.False(t, result.Success)
	assert.Equal(t, "low_confidence", result.Error)
	assert.Contains(t, result.Warnings, "low_confidence")
	assert.Contains(t, result.Explanation, "rephrase")
	assert.Nil(t, result.Data)
	assert.Zero(t, f.factory.executorCalls)
}

func TestResolveQuery_CacheHit(t *testing.T) {
	f := newFixture(t, time.Minute)
	req := Request{
		Question: "Which customers are in Hanoi?",
		AgentID:  f.agentID,
		Execute:  true,
	}

	first := f.sup.ResolveQuery(context.Background(), req)
	require.True(t, first.Success, "error: %s", first.Error)
	assert.False(t, first.Cached)

	second := f.sup.ResolveQuery(context.Background(), req)
	require.True(t, second.Success)
	assert.True(t, second.Cached)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Len(t, f.factory.executor.queries, 1, "cached results must not re-execute")
}

func TestResolveQuery_ExtractsUncatalogedSchema(t *testing.T) {
	f := newFixture(t, 0)
	freshID := uuid.New()
	f.sup.deps.Agents.(*MemoryAgentRegistry).Register(&models.Agent{
		ID:   f.agentID,
		Name: "sales-assistant",
		Databases: []*models.DatabaseSource{
			{ID: freshID, Name: "fresh", DBType: models.DBTypeSQLite, Database: "fresh.db", IsDefault: true},
		},
	})
	f.factory.extractor.schema = catalog.DefaultSchema(freshID)

	result := f.sup.ResolveQuery(context.Background(), Request{
		Question: "Which customers are in Hanoi?",
		AgentID:  f.agentID,
		Execute:  false,
	})

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, 1, f.factory.extractCalls)

	// Second request serves the published snapshot without re-extracting.
	result = f.sup.ResolveQuery(context.Background(), Request{
		Question: "Which customers are in Hanoi?",
		AgentID:  f.agentID,
		Execute:  false,
	})
	require.True(t, result.Success)
	assert.Equal(t, 1, f.factory.extractCalls)
}

func TestResolveAcross(t *testing.T) {
	f := newFixture(t, 0)

	results := f.sup.ResolveAcross(context.Background(),
		"Which customers are in Hanoi?", f.agentID,
		[]uuid.UUID{f.salesID, f.archiveID}, false)

	require.Len(t, results, 2)
	require.True(t, results[0].Success, "error: %s", results[0].Error)
	require.True(t, results[1].Success, "error: %s", results[1].Error)
	assert.Equal(t, "sales", results[0].DatabaseUsed.Name)
	assert.Equal(t, "archive", results[1].DatabaseUsed.Name)
}
