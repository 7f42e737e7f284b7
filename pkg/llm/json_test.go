package llm

import (
	"testing"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	input := `{"name": "test", "value": 123}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_PlainArray(t *testing.T) {
	input := `[{"name": "test"}, {"name": "test2"}]`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_WithThinkTags(t *testing.T) {
	input := `<think>
Let me analyze this request...
</think>
{"intent": "data_retrieval", "confidence": 0.9}`

	expected := `{"intent": "data_retrieval", "confidence": 0.9}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_WithTextAroundJSON(t *testing.T) {
	input := `Here is the classification:
{"intent": "report_generation"}
Let me know if you need anything else.`

	expected := `{"intent": "report_generation"}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_BracketsInStrings(t *testing.T) {
	input := `{"message": "Use {braces} and [brackets] in text", "count": 1}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_EscapedQuotesInStrings(t *testing.T) {
	input := `{"message": "He said \"hello\"", "valid": true}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	input := `This is just plain text with no JSON.`
	_, err := ExtractJSON(input)
	if err == nil {
		t.Error("expected error for input with no JSON")
	}
}

func TestExtractJSON_InvalidJSON(t *testing.T) {
	input := `{"unclosed": "object"`
	_, err := ExtractJSON(input)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestExtractJSON_EmptyInput(t *testing.T) {
	_, err := ExtractJSON("")
	if err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseJSONResponse_Object(t *testing.T) {
	type testStruct struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}

	input := `<think>thinking</think>{"intent": "insight_generation", "confidence": 0.8}`
	result, err := ParseJSONResponse[testStruct](input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent != "insight_generation" {
		t.Errorf("expected intent 'insight_generation', got %q", result.Intent)
	}
	if result.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %f", result.Confidence)
	}
}

func TestParseJSONResponse_Array(t *testing.T) {
	type item struct {
		ID string `json:"id"`
	}

	input := `[{"id": "a"}, {"id": "b"}]`
	result, err := ParseJSONResponse[[]item](input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 items, got %d", len(result))
	}
	if result[0].ID != "a" {
		t.Errorf("expected first id 'a', got %q", result[0].ID)
	}
}

func TestExtractSQL_SQLFence(t *testing.T) {
	input := "Here is the query:\n```sql\nSELECT id, name FROM customers\n```\nThis lists all customers."
	expected := "SELECT id, name FROM customers"
	if got := ExtractSQL(input); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestExtractSQL_PlainFence(t *testing.T) {
	input := "```\nWITH recent AS (SELECT * FROM orders) SELECT count(*) FROM recent\n```"
	expected := "WITH recent AS (SELECT * FROM orders) SELECT count(*) FROM recent"
	if got := ExtractSQL(input); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestExtractSQL_FreeText(t *testing.T) {
	input := "The best approach is:\nSELECT city, count(*) FROM customers GROUP BY city\n\nThis groups customers by city."
	expected := "SELECT city, count(*) FROM customers GROUP BY city"
	if got := ExtractSQL(input); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestExtractSQL_ThinkTags(t *testing.T) {
	input := "<think>reasoning about joins</think>\n```sql\nSELECT o.id FROM orders o JOIN customers c ON c.id = o.customer_id\n```"
	expected := "SELECT o.id FROM orders o JOIN customers c ON c.id = o.customer_id"
	if got := ExtractSQL(input); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestExtractSQL_NoStatement(t *testing.T) {
	if got := ExtractSQL("I could not produce a query for that question."); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
