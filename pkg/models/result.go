package models

import "time"

// TableData is the tabular payload of a query result.
type TableData struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// DatabaseUsed describes the source a query ran against.
type DatabaseUsed struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is the response shape consumed by the UI. The field set and
// names are a compatibility contract; the UI renders this structurally.
type QueryResult struct {
	Success      bool          `json:"success"`
	Question     string        `json:"question"`
	SQL          string        `json:"sql"`
	Explanation  string        `json:"explanation"`
	IntentType   string        `json:"intent_type"`
	DatabaseUsed *DatabaseUsed `json:"database_used,omitempty"`
	Data         *TableData    `json:"data"`
	Warnings     []string      `json:"warnings"`
	Cached       bool          `json:"cached"`
	Error        string        `json:"error,omitempty"`
}

// HistoryRecord is one append-only entry of the query history.
type HistoryRecord struct {
	Question  string    `json:"question"`
	SQL       string    `json:"sql"`
	AgentID   string    `json:"agent_id,omitempty"`
	SourceID  string    `json:"source_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
