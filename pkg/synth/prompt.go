package synth

import (
	"fmt"
	"strings"

	"github.com/rickey-cpu/AIQuery/pkg/examples"
	"github.com/rickey-cpu/AIQuery/pkg/intent"
	"github.com/rickey-cpu/AIQuery/pkg/models"
	"github.com/rickey-cpu/AIQuery/pkg/tools"
)

// dialectNotes are per-dialect guidance appended to the generation prompt.
var dialectNotes = map[models.DBType]string{
	models.DBTypeSQLite: `- Use SQLite date functions: date('now'), strftime.
- LIMIT n for row caps. No FULL OUTER JOIN.`,
	models.DBTypeMySQL: `- Use MySQL date functions: NOW(), DATE_SUB, DATE_FORMAT.
- LIMIT n for row caps. Backticks only when an identifier needs quoting.`,
	models.DBTypePostgres: `- Use PostgreSQL date functions: NOW(), date_trunc, INTERVAL arithmetic.
- LIMIT n for row caps. Prefer ILIKE for case-insensitive matching.`,
	models.DBTypeSQLServer: `- Use T-SQL date functions: GETDATE(), DATEADD, DATEDIFF.
- SELECT TOP (n) for row caps; LIMIT is not valid T-SQL.
- Quote identifiers with [brackets] when needed.`,
}

// intentPreambles adjust the instruction for report and insight questions.
var intentPreambles = map[intent.Type]string{
	intent.ReportGeneration: `The user wants a report. Prefer grouped aggregates with readable column aliases, ordered so the most significant rows come first.`,
	intent.InsightGeneration: `The user wants trend or comparison analysis. Prefer time-bucketed or grouped aggregates that expose the pattern being asked about.`,
}

const sqlSystemMessage = `You are an expert SQL writer. Generate exactly one read-only SELECT statement for the question, using only tables and columns from the provided schema context. Respond with a JSON object: {"sql": "<the statement>", "explanation": "<one or two sentences>"}. No other text.`

const searchSystemMessage = `You are an expert in the Elasticsearch query DSL. Generate a single JSON _search request body for the question, using only fields from the provided mapping context. Respond with the JSON object only, no other text.`

// promptContext is everything resolved ahead of the completion call.
type promptContext struct {
	tables    []*tools.TableRules
	schema    *models.SchemaMetadata
	columns   []tools.ColumnCandidate
	values    []tools.ValueResolution
	metrics   []*models.SemanticMetric
	exemplars []examples.Entry
}

// buildPrompt assembles the structured context block handed to the
// completion capability.
func buildPrompt(question string, cls intent.Classification, dbType models.DBType, pc *promptContext) string {
	var b strings.Builder

	if preamble, ok := intentPreambles[cls.Intent]; ok {
		b.WriteString(preamble)
		b.WriteString("\n\n")
	}

	if dbType.IsSearchEngine() {
		b.WriteString("Target: Elasticsearch-compatible search engine.\n\n")
	} else {
		fmt.Fprintf(&b, "Target dialect: %s\n\n", dbType)
	}

	b.WriteString("Schema context:\n")
	for _, tr := range pc.tables {
		tbl := pc.schema.TableByName(tr.Table)
		if tbl == nil {
			continue
		}
		fmt.Fprintf(&b, "Table %s", tbl.Name)
		if tr.Description != "" {
			fmt.Fprintf(&b, " (%s)", tr.Description)
		}
		b.WriteString(":\n")
		for _, col := range tbl.Columns {
			fmt.Fprintf(&b, "  - %s %s", col.Name, col.DataType)
			if col.IsPrimary {
				b.WriteString(" PRIMARY KEY")
			}
			b.WriteString("\n")
		}
		for _, jh := range tr.JoinHints {
			fmt.Fprintf(&b, "  join %s on %s\n", jh.Target, jh.On)
		}
		if len(tr.RequiredColumns) > 0 {
			fmt.Fprintf(&b, "  always select: %s\n", strings.Join(tr.RequiredColumns, ", "))
		}
		for _, note := range tr.Notes {
			fmt.Fprintf(&b, "  note: %s\n", note)
		}
	}
	b.WriteString("\n")

	if len(pc.columns) > 0 {
		b.WriteString("Resolved columns for question terms:\n")
		for _, c := range pc.columns {
			if c.Expression != "" {
				fmt.Fprintf(&b, "  - %s means %s\n", c.Column, c.Expression)
				continue
			}
			fmt.Fprintf(&b, "  - %s.%s (%s)\n", c.Table, c.Column, c.DataType)
		}
		b.WriteString("\n")
	}

	if len(pc.metrics) > 0 {
		b.WriteString("Business metrics:\n")
		for _, m := range pc.metrics {
			fmt.Fprintf(&b, "  - %s = %s", m.Name, m.Expression)
			if m.Filter != "" {
				fmt.Fprintf(&b, " WHERE %s", m.Filter)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(pc.values) > 0 {
		b.WriteString("Value mappings:\n")
		for _, v := range pc.values {
			fmt.Fprintf(&b, "  - %q refers to %s values: %s\n",
				v.Alias, v.Column, strings.Join(v.Values, ", "))
		}
		b.WriteString("\n")
	}

	if len(pc.exemplars) > 0 {
		b.WriteString("Similar answered questions:\n")
		for _, ex := range pc.exemplars {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", ex.Question, ex.SQL)
		}
		b.WriteString("\n")
	}

	if notes, ok := dialectNotes[dbType]; ok {
		b.WriteString("Dialect notes:\n")
		b.WriteString(notes)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
