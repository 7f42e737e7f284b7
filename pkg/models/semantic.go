package models

import "github.com/google/uuid"

// SemanticEntity maps a business noun phrase (and its synonyms) to a backing
// table. Names are unique within an Agent.
type SemanticEntity struct {
	ID          uuid.UUID `json:"id"`
	AgentID     uuid.UUID `json:"agent_id"`
	Name        string    `json:"name"`
	Table       string    `json:"table"`
	PrimaryKey  string    `json:"primary_key"`
	Description string    `json:"description,omitempty"`
	Synonyms    []string  `json:"synonyms,omitempty"`
}

// SemanticMetric maps a measure phrase ("revenue", "churn") to a SQL
// expression plus an optional filter condition. Names are unique within an
// Agent.
type SemanticMetric struct {
	ID          uuid.UUID `json:"id"`
	AgentID     uuid.UUID `json:"agent_id"`
	Name        string    `json:"name"`
	Expression  string    `json:"expression"` // e.g. "SUM(orders.total_amount)"
	Table       string    `json:"table,omitempty"`
	Filter      string    `json:"filter,omitempty"` // e.g. "status != 'cancelled'"
	Description string    `json:"description,omitempty"`
	Synonyms    []string  `json:"synonyms,omitempty"`
}

// ValueAlias maps a user-facing alias ("HN") to the literal values stored in
// a column ("Hanoi"). Expression aliases carry a SQL expression instead of
// literals (relative date filters and the like).
type ValueAlias struct {
	Alias        string   `json:"alias"`
	Column       string   `json:"column"`
	Table        string   `json:"table,omitempty"`
	Values       []string `json:"values"`
	Description  string   `json:"description,omitempty"`
	IsExpression bool     `json:"is_expression,omitempty"`
}
