// Package synth turns a question plus retrieved context into a candidate
// query. Tool resolution runs as a fixed pre-pass for every extracted term;
// the completion capability only ever sees an already-assembled context
// block and may return different text for identical input.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/catalog"
	"github.com/rickey-cpu/AIQuery/pkg/examples"
	"github.com/rickey-cpu/AIQuery/pkg/intent"
	"github.com/rickey-cpu/AIQuery/pkg/jsonutil"
	"github.com/rickey-cpu/AIQuery/pkg/llm"
	"github.com/rickey-cpu/AIQuery/pkg/models"
	"github.com/rickey-cpu/AIQuery/pkg/tools"
)

// Request carries everything the synthesizer needs for one question.
type Request struct {
	Question string
	Intent   intent.Classification
	Agent    *models.Agent
	Source   *models.DatabaseSource
	Schema   *models.SchemaMetadata
}

// Result is a candidate query plus its explanation and confidence.
// For search-engine sources SQL holds the JSON _search body.
type Result struct {
	SQL           string   `json:"sql"`
	Explanation   string   `json:"explanation"`
	TablesUsed    []string `json:"tables_used"`
	Confidence    float64  `json:"confidence"`
	LowConfidence bool     `json:"low_confidence"`
}

// Synthesizer composes tool outputs, retrieved exemplars, and a completion
// call into a candidate query.
type Synthesizer struct {
	client  llm.CompletionClient
	index   *examples.Index
	layer   *catalog.SemanticLayer
	columns *tools.ColumnResolver
	values  *tools.ValueResolver
	rules   *tools.TableRuleLookup
	k       int
	logger  *zap.Logger
}

// New creates a synthesizer. exemplarK bounds few-shot retrieval.
func New(client llm.CompletionClient, index *examples.Index, layer *catalog.SemanticLayer, exemplarK int, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		client:  client,
		index:   index,
		layer:   layer,
		columns: tools.NewColumnResolver(layer, logger),
		values:  tools.NewValueResolver(layer, logger),
		rules:   tools.NewTableRuleLookup(logger),
		k:       exemplarK,
		logger:  logger.Named("synth"),
	}
}

// sqlPayload fields are raw so that a model emitting a number or boolean
// where a string belongs still parses.
type sqlPayload struct {
	SQL         json.RawMessage `json:"sql"`
	Explanation json.RawMessage `json:"explanation"`
}

// Synthesize resolves context for the question and generates a candidate
// query. Zero usable tables yields a low-confidence clarification result
// without calling the completion capability; a completion failure wraps
// apperrors.ErrGenerationFailed.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*Result, error) {
	pc, resolvedTerms := s.resolveContext(req)

	if len(pc.tables) == 0 {
		s.logger.Info("no usable tables resolved",
			zap.String("question", req.Question))
		return &Result{
			Explanation: "I could not match your question to any table in this database. " +
				"Could you rephrase it using the table or field names you are interested in?",
			LowConfidence: true,
		}, nil
	}

	pc.exemplars = s.retrieveExemplars(ctx, req.Question)

	prompt := buildPrompt(req.Question, req.Intent, req.Source.DBType, pc)
	system := sqlSystemMessage
	if req.Source.DBType.IsSearchEngine() {
		system = searchSystemMessage
	}

	response, err := s.client.Complete(ctx, prompt, system)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGenerationFailed, err)
	}

	result, err := s.postProcess(response, req.Source.DBType)
	if err != nil {
		return nil, err
	}

	result.TablesUsed = tableNames(pc.tables)
	result.Confidence = confidence(result.SQL, resolvedTerms)
	return result, nil
}

// resolvedTerm records one term that the tool pass bound to schema objects,
// used afterwards for the confidence heuristic.
type resolvedTerm struct {
	term    string
	table   string
	column  string
}

// resolveContext runs the fixed tool pre-pass over every extracted term.
// Misses degrade context quality but never fail the request.
func (s *Synthesizer) resolveContext(req Request) (*promptContext, []resolvedTerm) {
	pc := &promptContext{schema: req.Schema}
	terms := tools.ExtractTerms(req.Question)

	tableSet := map[string]struct{}{}
	colSeen := map[string]struct{}{}
	metricSeen := map[string]struct{}{}
	var resolved []resolvedTerm

	for _, term := range terms {
		if entity := s.layer.ResolveEntity(req.Agent.ID, term); entity != nil {
			if req.Schema.TableByName(entity.Table) != nil {
				tableSet[entity.Table] = struct{}{}
				resolved = append(resolved, resolvedTerm{term: term, table: entity.Table})
			}
		}
		if metric := s.layer.ResolveMetric(req.Agent.ID, term); metric != nil {
			if _, dup := metricSeen[metric.Name]; !dup {
				metricSeen[metric.Name] = struct{}{}
				pc.metrics = append(pc.metrics, metric)
				if metric.Table != "" && req.Schema.TableByName(metric.Table) != nil {
					tableSet[metric.Table] = struct{}{}
				}
			}
		}

		for _, cand := range s.columns.Resolve(req.Agent.ID, req.Schema, term) {
			key := cand.Table + "." + cand.Column
			if _, dup := colSeen[key]; dup {
				continue
			}
			colSeen[key] = struct{}{}
			pc.columns = append(pc.columns, cand)
			if cand.Table != "" {
				tableSet[cand.Table] = struct{}{}
				resolved = append(resolved, resolvedTerm{term: term, table: cand.Table, column: cand.Column})
			}
		}

		if v := s.values.Resolve(term); v.Found {
			pc.values = append(pc.values, v)
			if v.Table != "" && req.Schema.TableByName(v.Table) != nil {
				tableSet[v.Table] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(tableSet))
	for name := range tableSet {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if rules, err := s.rules.Lookup(req.Schema, name); err == nil {
			pc.tables = append(pc.tables, rules)
		}
	}

	return pc, resolved
}

// retrieveExemplars embeds the question and fetches the nearest exemplars.
// Embedding failures (including providers without embedding support) just
// mean no few-shot block.
func (s *Synthesizer) retrieveExemplars(ctx context.Context, question string) []examples.Entry {
	if s.index == nil || s.k <= 0 {
		return nil
	}
	embedding, err := s.client.CreateEmbedding(ctx, question)
	if err != nil || len(embedding) == 0 {
		s.logger.Debug("question embedding unavailable", zap.Error(err))
		return nil
	}
	return s.index.Retrieve(embedding, s.k)
}

// postProcess extracts the query from the raw completion. SQL dialects
// prefer the JSON payload shape, then a fenced block, then the first
// SELECT statement; search dialects require a JSON object.
func (s *Synthesizer) postProcess(response string, dbType models.DBType) (*Result, error) {
	if dbType.IsSearchEngine() {
		body, err := llm.ExtractJSON(response)
		if err != nil {
			return nil, fmt.Errorf("%w: no search body in completion", apperrors.ErrGenerationFailed)
		}
		return &Result{SQL: body, Explanation: "Search request generated from your question."}, nil
	}

	if payload, err := llm.ParseJSONResponse[sqlPayload](response); err == nil {
		sql := strings.TrimSpace(jsonutil.FlexibleStringValue(payload.SQL))
		if sql != "" {
			return &Result{SQL: sql, Explanation: jsonutil.FlexibleStringValue(payload.Explanation)}, nil
		}
	}

	sql := llm.ExtractSQL(response)
	if sql == "" {
		return nil, fmt.Errorf("%w: completion contained no statement", apperrors.ErrGenerationFailed)
	}
	return &Result{SQL: sql, Explanation: "Query generated from your question."}, nil
}

// confidence is the fraction of resolved terms whose bound table or column
// appears in the emitted query.
func confidence(sql string, resolved []resolvedTerm) float64 {
	if len(resolved) == 0 {
		return 0
	}
	lower := strings.ToLower(sql)
	hits := 0
	for _, r := range resolved {
		if r.column != "" && strings.Contains(lower, strings.ToLower(r.column)) {
			hits++
			continue
		}
		if r.table != "" && strings.Contains(lower, strings.ToLower(r.table)) {
			hits++
		}
	}
	return float64(hits) / float64(len(resolved))
}

func tableNames(rules []*tools.TableRules) []string {
	names := make([]string, len(rules))
	for i, tr := range rules {
		names[i] = tr.Table
	}
	return names
}
