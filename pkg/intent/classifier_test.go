package intent

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/llm"
)

func TestClassify_KeywordFallback(t *testing.T) {
	tests := []struct {
		question string
		want     Type
	}{
		{"Show all customers from Hanoi", DataRetrieval},
		{"Generate a monthly sales report", ReportGeneration},
		{"Báo cáo doanh thu quý này", ReportGeneration},
		{"What is the revenue trend this year?", InsightGeneration},
		{"Phân tích xu hướng bán hàng", InsightGeneration},
		{"How do I filter by date range?", QueryAssistance},
		{"Why was my budget allocation reduced?", AllocationExplainability},
		{"What is the refund policy?", KnowledgeBase},
		{"Chính sách đổi trả là gì?", KnowledgeBase},
		{"", DataRetrieval},
		{"asdf qwerty zxcv", DataRetrieval},
	}

	c := NewClassifier(nil, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.question)
			if got.Intent != tt.want {
				t.Errorf("intent: expected %s, got %s", tt.want, got.Intent)
			}
			if !got.Intent.Valid() {
				t.Errorf("intent %q outside closed set", got.Intent)
			}
		})
	}
}

func TestClassify_QueryType(t *testing.T) {
	tests := []struct {
		question string
		want     QueryType
	}{
		{"Show all customers", QuerySelect},
		{"How many orders were placed today?", QueryAggregate},
		{"Compare revenue between Hanoi and Saigon", QueryCompare},
		{"Revenue per month this year", QueryTrend},
	}

	c := NewClassifier(nil, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.question)
			if got.QueryType != tt.want {
				t.Errorf("query type: expected %s, got %s", tt.want, got.QueryType)
			}
		})
	}
}

func TestClassify_ModelResponseUsed(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string) (string, error) {
		return `{"intent": "report_generation", "query_type": "aggregate"}`, nil
	}

	c := NewClassifier(mock, zap.NewNop())
	got := c.Classify(context.Background(), "anything")
	if got.Intent != ReportGeneration {
		t.Errorf("expected report_generation, got %s", got.Intent)
	}
	if got.QueryType != QueryAggregate {
		t.Errorf("expected aggregate, got %s", got.QueryType)
	}
	if got.FromFallback {
		t.Error("expected model classification, not fallback")
	}
}

func TestClassify_ModelErrorFallsBack(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string) (string, error) {
		return "", errors.New("connection refused")
	}

	c := NewClassifier(mock, zap.NewNop())
	got := c.Classify(context.Background(), "monthly sales report please")
	if got.Intent != ReportGeneration {
		t.Errorf("expected keyword fallback report_generation, got %s", got.Intent)
	}
	if !got.FromFallback {
		t.Error("expected fallback flag set")
	}
}

func TestClassify_LabelOutsideSetFallsBack(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string) (string, error) {
		return `{"intent": "world_domination", "query_type": "select"}`, nil
	}

	c := NewClassifier(mock, zap.NewNop())
	got := c.Classify(context.Background(), "show customers")
	if got.Intent != DataRetrieval {
		t.Errorf("expected fallback data_retrieval, got %s", got.Intent)
	}
	if !got.FromFallback {
		t.Error("expected fallback flag set")
	}
}

func TestClassify_GarbageResponseFallsBack(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string) (string, error) {
		return "I think this is probably a retrieval question.", nil
	}

	c := NewClassifier(mock, zap.NewNop())
	got := c.Classify(context.Background(), "show customers")
	if got.Intent != DataRetrieval {
		t.Errorf("expected data_retrieval, got %s", got.Intent)
	}
}
