// Package intent classifies questions into a fixed closed set of intents.
// Classification is total: every input maps to exactly one intent, with
// ad-hoc data retrieval as the default for anything unclassifiable.
package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/llm"
)

// Type is one of the closed set of question intents.
type Type string

const (
	DataRetrieval            Type = "data_retrieval"
	ReportGeneration         Type = "report_generation"
	InsightGeneration        Type = "insight_generation"
	QueryAssistance          Type = "query_assistance"
	AllocationExplainability Type = "allocation_explainability"
	KnowledgeBase            Type = "knowledge_base"
)

// All lists the closed intent set.
var All = []Type{
	DataRetrieval,
	ReportGeneration,
	InsightGeneration,
	QueryAssistance,
	AllocationExplainability,
	KnowledgeBase,
}

// Valid reports whether t is in the closed set.
func (t Type) Valid() bool {
	for _, v := range All {
		if t == v {
			return true
		}
	}
	return false
}

// QueryType hints at the shape of the expected SQL.
type QueryType string

const (
	QuerySelect    QueryType = "select"
	QueryAggregate QueryType = "aggregate"
	QueryCompare   QueryType = "compare"
	QueryTrend     QueryType = "trend"
)

// Classification is the result of classifying one question.
type Classification struct {
	Intent    Type      `json:"intent"`
	QueryType QueryType `json:"query_type"`

	// FromFallback is true when the deterministic keyword classifier
	// produced the label instead of the completion capability.
	FromFallback bool `json:"-"`
}

// Classifier maps a question to an intent. When a completion client is
// configured it is consulted first; any failure (error, timeout, label
// outside the closed set) falls back to the keyword classifier, so
// Classify never fails.
type Classifier struct {
	client llm.CompletionClient
	logger *zap.Logger
}

// NewClassifier creates a classifier. client may be nil, in which case only
// the keyword classifier runs.
func NewClassifier(client llm.CompletionClient, logger *zap.Logger) *Classifier {
	return &Classifier{client: client, logger: logger.Named("intent")}
}

const classifySystemMessage = `You classify database questions. Respond with only a JSON object:
{"intent": "<one of: data_retrieval, report_generation, insight_generation, query_assistance, allocation_explainability, knowledge_base>", "query_type": "<one of: select, aggregate, compare, trend>"}`

// Classify returns exactly one intent from the closed set.
func (c *Classifier) Classify(ctx context.Context, question string) Classification {
	if c.client != nil {
		if result, err := c.classifyWithModel(ctx, question); err == nil {
			return result
		} else {
			c.logger.Debug("model classification failed, using keyword fallback",
				zap.Error(err))
		}
	}
	result := classifyByKeywords(question)
	result.FromFallback = true
	return result
}

func (c *Classifier) classifyWithModel(ctx context.Context, question string) (Classification, error) {
	prompt := fmt.Sprintf("Question: %s", question)
	response, err := c.client.Complete(ctx, prompt, classifySystemMessage)
	if err != nil {
		return Classification{}, err
	}

	parsed, err := llm.ParseJSONResponse[Classification](response)
	if err != nil {
		return Classification{}, err
	}
	if !parsed.Intent.Valid() {
		return Classification{}, fmt.Errorf("intent %q outside closed set", parsed.Intent)
	}
	switch parsed.QueryType {
	case QuerySelect, QueryAggregate, QueryCompare, QueryTrend:
	default:
		parsed.QueryType = detectQueryType(question)
	}
	return parsed, nil
}

// keyword groups checked in priority order; first hit wins
var intentKeywords = []struct {
	intent   Type
	keywords []string
}{
	{QueryAssistance, []string{
		"how do i", "how to write", "help me write", "explain this query",
		"what does this query", "làm sao để", "hướng dẫn",
	}},
	{AllocationExplainability, []string{
		"allocation", "allocated", "allocate", "phân bổ", "why was my",
	}},
	{ReportGeneration, []string{
		"report", "summary report", "export", "báo cáo", "tổng hợp",
	}},
	{InsightGeneration, []string{
		"trend", "insight", "analyze", "analysis", "why did", "why are",
		"xu hướng", "phân tích", "tại sao",
	}},
	{KnowledgeBase, []string{
		"what is", "what are", "definition of", "define ", "policy",
		"là gì", "chính sách", "nghĩa là",
	}},
}

// classifyByKeywords is the deterministic fallback. Unmatched questions
// default to data_retrieval.
func classifyByKeywords(question string) Classification {
	q := strings.ToLower(question)
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(q, kw) {
				return Classification{Intent: group.intent, QueryType: detectQueryType(question)}
			}
		}
	}
	return Classification{Intent: DataRetrieval, QueryType: detectQueryType(question)}
}

func detectQueryType(question string) QueryType {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, "compare", "versus", " vs ", "so sánh"):
		return QueryCompare
	case containsAny(q, "trend", "over time", "per month", "monthly", "theo thời gian", "xu hướng"):
		return QueryTrend
	case containsAny(q, "how many", "count", "total", "sum", "average", "avg", "bao nhiêu", "tổng"):
		return QueryAggregate
	}
	return QuerySelect
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
