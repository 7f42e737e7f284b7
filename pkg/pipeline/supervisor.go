// Package pipeline sequences one question through classification, routing,
// context retrieval, synthesis, validation, and bounded execution. Each
// request runs an independent pipeline instance; the only shared state is
// the read-mostly catalog layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/catalog"
	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/history"
	"github.com/rickey-cpu/AIQuery/pkg/intent"
	"github.com/rickey-cpu/AIQuery/pkg/logging"
	"github.com/rickey-cpu/AIQuery/pkg/models"
	"github.com/rickey-cpu/AIQuery/pkg/router"
	"github.com/rickey-cpu/AIQuery/pkg/sqlcheck"
	"github.com/rickey-cpu/AIQuery/pkg/synth"
)

// Request is the inbound resolve-query contract.
type Request struct {
	Question string     `json:"question"`
	AgentID  uuid.UUID  `json:"agent_id"`
	SourceID *uuid.UUID `json:"source_id,omitempty"`

	// Execute=false stops after validation and returns the SQL without
	// running it, so callers can inspect before resubmitting.
	Execute bool `json:"execute"`
}

// QueryContext is the per-request working state. It is built fresh for
// every request and discarded with the response; nothing in it is shared
// across concurrent requests.
type QueryContext struct {
	Intent     intent.Classification
	Agent      *models.Agent
	Source     *models.DatabaseSource
	Schema     *models.SchemaMetadata
	Synthesis  *synth.Result
	Validation *sqlcheck.Validation
}

// Deps bundles the supervisor's collaborators.
type Deps struct {
	Agents     AgentStore
	Classifier *intent.Classifier
	Router     *router.Router
	Schemas    *catalog.SchemaCatalog
	Synth      *synth.Synthesizer
	Validator  *sqlcheck.Validator
	Factory    connectors.Factory
	History    history.Store // optional

	ExecutionTimeout time.Duration
	CacheTTL         time.Duration
	Logger           *zap.Logger
}

// Supervisor is the pipeline controller.
type Supervisor struct {
	deps   Deps
	cache  *gocache.Cache
	logger *zap.Logger
}

// New creates a supervisor. A zero CacheTTL disables the result cache.
func New(deps Deps) *Supervisor {
	var cache *gocache.Cache
	if deps.CacheTTL > 0 {
		cache = gocache.New(deps.CacheTTL, 2*deps.CacheTTL)
	}
	return &Supervisor{
		deps:   deps,
		cache:  cache,
		logger: deps.Logger.Named("pipeline"),
	}
}

// ResolveQuery runs the full pipeline for one question. Every terminal
// failure still returns a QueryResult-shaped payload with the original
// question preserved; the error return is reserved for programming errors,
// so callers can rely on the result alone.
func (s *Supervisor) ResolveQuery(ctx context.Context, req Request) *models.QueryResult {
	start := time.Now()

	if cached, ok := s.cacheGet(req); ok {
		s.logger.Debug("cache hit", zap.String("question", req.Question))
		return cached
	}

	qc := &QueryContext{}

	// Classifying
	qc.Intent = s.deps.Classifier.Classify(ctx, req.Question)

	// Routing
	agent, err := s.deps.Agents.AgentByID(ctx, req.AgentID)
	if err != nil {
		return s.failed(req, qc, StageRouting, err)
	}
	qc.Agent = agent

	source, err := s.deps.Router.Route(agent, req.Question, req.SourceID)
	if err != nil {
		return s.failed(req, qc, StageRouting, err)
	}
	qc.Source = source

	// RetrievingContext
	schema, err := s.retrieveSchema(ctx, source)
	if err != nil {
		return s.failed(req, qc, StageRetrievingContext, err)
	}
	qc.Schema = schema

	// Synthesizing
	synthesis, err := s.deps.Synth.Synthesize(ctx, synth.Request{
		Question: req.Question,
		Intent:   qc.Intent,
		Agent:    agent,
		Source:   source,
		Schema:   schema,
	})
	if err != nil {
		return s.failed(req, qc, StageSynthesizing, err)
	}
	qc.Synthesis = synthesis

	if synthesis.LowConfidence {
		return &models.QueryResult{
			Success:     false,
			Question:    req.Question,
			Explanation: synthesis.Explanation,
			IntentType:  string(qc.Intent.Intent),
			Warnings:    []string{"low_confidence"},
			Error:       "low_confidence",
		}
	}

	// Validating
	validation, err := s.validate(synthesis.SQL, source.DBType)
	if err != nil {
		return s.failed(req, qc, StageValidating, err)
	}
	qc.Validation = validation

	result := &models.QueryResult{
		Success:     true,
		Question:    req.Question,
		SQL:         validation.SQL,
		Explanation: synthesis.Explanation,
		IntentType:  string(qc.Intent.Intent),
		DatabaseUsed: &models.DatabaseUsed{
			Name: source.Name,
			Type: string(source.DBType),
		},
		Warnings: validation.Warnings,
	}

	if !req.Execute {
		return result
	}

	// Executing
	data, err := s.execute(ctx, source, validation.SQL)
	if err != nil {
		return s.failed(req, qc, StageExecuting, err)
	}
	result.Data = data

	s.logger.Info("query resolved",
		zap.String("agent", agent.Name),
		zap.String("source", source.Name),
		zap.String("intent", string(qc.Intent.Intent)),
		zap.String("sql", logging.SanitizeQuery(validation.SQL)),
		zap.Int("rows", data.RowCount),
		zap.Duration("elapsed", time.Since(start)))

	s.cacheSet(req, result)
	s.recordHistory(req, qc, validation.SQL)
	return result
}

// ResolveAcross fans one question out to several sources of the same agent
// and collects the per-source results in input order.
func (s *Supervisor) ResolveAcross(ctx context.Context, question string, agentID uuid.UUID, sourceIDs []uuid.UUID, execute bool) []*models.QueryResult {
	results := make([]*models.QueryResult, len(sourceIDs))
	var wg sync.WaitGroup
	for i, sourceID := range sourceIDs {
		wg.Add(1)
		go func(i int, sourceID uuid.UUID) {
			defer wg.Done()
			id := sourceID
			results[i] = s.ResolveQuery(ctx, Request{
				Question: question,
				AgentID:  agentID,
				SourceID: &id,
				Execute:  execute,
			})
		}(i, sourceID)
	}
	wg.Wait()
	return results
}

// retrieveSchema serves the published snapshot, falling back to a live
// extraction for sources that have not been cataloged yet.
func (s *Supervisor) retrieveSchema(ctx context.Context, source *models.DatabaseSource) (*models.SchemaMetadata, error) {
	schema, err := s.deps.Schemas.Describe(source.ID)
	if err == nil {
		return schema, nil
	}
	if !errors.Is(err, apperrors.ErrUnknownSource) {
		return nil, err
	}

	extractor, err := s.deps.Factory.NewSchemaExtractor(ctx, source)
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	schema, err = extractor.Extract(ctx)
	if err != nil {
		return nil, err
	}
	s.deps.Schemas.Publish(schema)
	return schema, nil
}

func (s *Supervisor) validate(query string, dbType models.DBType) (*sqlcheck.Validation, error) {
	if dbType.IsSearchEngine() {
		return s.deps.Validator.ValidateSearchBody(query)
	}
	return s.deps.Validator.Validate(query, dbType)
}

func (s *Supervisor) execute(ctx context.Context, source *models.DatabaseSource, query string) (*models.TableData, error) {
	executor, err := s.deps.Factory.NewExecutor(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExecutionFailed, err)
	}
	defer executor.Close()

	if s.deps.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.ExecutionTimeout)
		defer cancel()
	}

	res, err := executor.Query(ctx, query, s.deps.Validator.MaxRows())
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		columns[i] = c.Name
	}
	return &models.TableData{Columns: columns, Rows: res.Rows, RowCount: res.RowCount}, nil
}

// failed renders the uniform error payload for a terminal stage failure.
func (s *Supervisor) failed(req Request, qc *QueryContext, stage Stage, err error) *models.QueryResult {
	stageErr := &StageError{Stage: stage, Err: err}
	s.logger.Warn("pipeline failed",
		zap.String("stage", string(stage)),
		zap.String("question", req.Question),
		zap.String("error", logging.SanitizeError(err)))

	result := &models.QueryResult{
		Success:     false,
		Question:    req.Question,
		Explanation: explanationFor(err),
		IntentType:  string(qc.Intent.Intent),
		Error:       logging.SanitizeError(stageErr),
	}
	if qc.Source != nil {
		result.DatabaseUsed = &models.DatabaseUsed{
			Name: qc.Source.Name,
			Type: string(qc.Source.DBType),
		}
	}
	return result
}

// explanationFor maps the error taxonomy to a human-readable explanation
// the UI can show directly.
func explanationFor(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNoDatabaseConfigured):
		return "This agent has no database configured. Add a database source before asking questions."
	case errors.Is(err, apperrors.ErrUnknownAgent):
		return "The requested agent does not exist."
	case errors.Is(err, apperrors.ErrUnknownSource):
		return "The requested database is not registered with this agent."
	case errors.Is(err, apperrors.ErrGenerationFailed):
		return "I could not generate a query for that question. The language model may be unavailable; please try again."
	case errors.Is(err, apperrors.ErrUnsafeStatement):
		return "The generated query was not a safe read-only statement, so it was not executed. Try rephrasing your question."
	case errors.Is(err, apperrors.ErrUnsafeConstruct):
		return "The generated query contained a construct that is not allowed, so it was not executed. Try rephrasing your question."
	case errors.Is(err, apperrors.ErrExecutionTimeout):
		return "The query took too long and was cancelled. Try narrowing the question."
	case errors.Is(err, apperrors.ErrExecutionFailed):
		return "The database rejected the query: " + logging.SanitizeError(err)
	case errors.Is(err, apperrors.ErrCompletionTimeout):
		return "The language model did not answer in time. Please try again."
	}
	return fmt.Sprintf("The request could not be completed: %v", err)
}

func (s *Supervisor) cacheKey(req Request) string {
	sourceKey := ""
	if req.SourceID != nil {
		sourceKey = req.SourceID.String()
	}
	return req.AgentID.String() + "|" + sourceKey + "|" + req.Question
}

func (s *Supervisor) cacheGet(req Request) (*models.QueryResult, bool) {
	if s.cache == nil || !req.Execute {
		return nil, false
	}
	raw, ok := s.cache.Get(s.cacheKey(req))
	if !ok {
		return nil, false
	}
	cached, ok := raw.(*models.QueryResult)
	if !ok {
		return nil, false
	}
	copied := *cached
	copied.Cached = true
	return &copied, true
}

func (s *Supervisor) cacheSet(req Request, result *models.QueryResult) {
	if s.cache == nil || !req.Execute || !result.Success {
		return
	}
	s.cache.Set(s.cacheKey(req), result, gocache.DefaultExpiration)
}

// recordHistory appends fire-and-forget; history must never slow or fail
// the response.
func (s *Supervisor) recordHistory(req Request, qc *QueryContext, sql string) {
	if s.deps.History == nil {
		return
	}
	record := models.HistoryRecord{
		Question:  req.Question,
		SQL:       sql,
		AgentID:   req.AgentID.String(),
		Timestamp: time.Now().UTC(),
	}
	if qc.Source != nil {
		record.SourceID = qc.Source.ID.String()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.History.Append(ctx, record); err != nil {
			s.logger.Warn("history append failed", zap.Error(err))
		}
	}()
}
