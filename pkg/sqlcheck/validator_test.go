package sqlcheck

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

func newValidator() *Validator {
	return New(1000, zap.NewNop())
}

func TestValidate_RejectsNonSelect(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"drop", "DROP TABLE x"},
		{"delete", "DELETE FROM orders"},
		{"insert", "INSERT INTO orders VALUES (1)"},
		{"update", "UPDATE orders SET status = 'done'"},
		{"truncate", "TRUNCATE TABLE orders"},
		{"alter", "ALTER TABLE orders ADD COLUMN x INT"},
		{"call", "CALL do_things()"},
		{"empty", "   "},
		{"modifying cte", "WITH deleted AS (DELETE FROM orders RETURNING *) SELECT * FROM deleted"},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.sql, models.DBTypeSQLite)
			if !errors.Is(err, apperrors.ErrUnsafeStatement) {
				t.Errorf("expected ErrUnsafeStatement, got %v", err)
			}
		})
	}
}

func TestValidate_RejectsMultipleStatements(t *testing.T) {
	v := newValidator()

	_, err := v.Validate("SELECT 1; DROP TABLE orders", models.DBTypeSQLite)
	if !errors.Is(err, apperrors.ErrUnsafeStatement) {
		t.Errorf("expected ErrUnsafeStatement, got %v", err)
	}

	// semicolon inside a string literal is fine
	got, err := v.Validate("SELECT * FROM notes WHERE body = 'a;b' LIMIT 5", models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SQL != "SELECT * FROM notes WHERE body = 'a;b' LIMIT 5" {
		t.Errorf("unexpected rewrite: %q", got.SQL)
	}
}

func TestValidate_StripsTrailingSemicolon(t *testing.T) {
	v := newValidator()

	got, err := v.Validate("SELECT id FROM orders LIMIT 10;", models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SQL != "SELECT id FROM orders LIMIT 10" {
		t.Errorf("expected trailing semicolon stripped, got %q", got.SQL)
	}
}

func TestValidate_RejectsDeniedConstructs(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"outfile", "SELECT * FROM orders INTO OUTFILE '/tmp/x'"},
		{"load_file", "SELECT LOAD_FILE('/etc/passwd')"},
		{"xp_cmdshell", "SELECT 1 WHERE 1 = xp_cmdshell('dir')"},
		{"pg_read_file", "SELECT pg_read_file('/etc/passwd')"},
		{"sleep", "SELECT sleep(10)"},
		{"benchmark", "SELECT benchmark(1000000, MD5('x'))"},
		{"waitfor", "SELECT 1 WAITFOR DELAY '0:0:10'"},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.sql, models.DBTypeSQLite)
			if !errors.Is(err, apperrors.ErrUnsafeConstruct) {
				t.Errorf("expected ErrUnsafeConstruct, got %v", err)
			}
		})
	}
}

func TestValidate_RowCapAdded(t *testing.T) {
	v := newValidator()

	got, err := v.Validate("SELECT * FROM customers WHERE city = 'Hanoi'", models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SQL != "SELECT * FROM customers WHERE city = 'Hanoi' LIMIT 1000" {
		t.Errorf("expected LIMIT appended, got %q", got.SQL)
	}
	if len(got.Warnings) == 0 {
		t.Error("expected an advisory warning for the added cap")
	}
}

func TestValidate_RowCapUsesTopForSQLServer(t *testing.T) {
	v := newValidator()

	got, err := v.Validate("SELECT name FROM customers", models.DBTypeSQLServer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SQL != "SELECT TOP (1000) name FROM customers" {
		t.Errorf("expected TOP rewrite, got %q", got.SQL)
	}
}

func TestValidate_ExistingLimitKept(t *testing.T) {
	v := newValidator()

	input := "SELECT name FROM customers LIMIT 50"
	got, err := v.Validate(input, models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SQL != input {
		t.Errorf("expected statement unchanged, got %q", got.SQL)
	}
}

func TestValidate_AggregateOnlyNeedsNoCap(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name      string
		sql       string
		wantCap   bool
	}{
		{"single count", "SELECT COUNT(*) FROM orders", false},
		{"sum and avg", "SELECT SUM(total_amount), AVG(total_amount) FROM orders", false},
		{"grouped aggregate", "SELECT city, COUNT(*) FROM customers GROUP BY city", true},
		{"mixed projection", "SELECT id, COUNT(*) FROM orders", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.sql, models.DBTypeSQLite)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			capped := strings.Contains(got.SQL, "LIMIT 1000")
			if capped != tt.wantCap {
				t.Errorf("cap applied = %v, expected %v (sql: %q)", capped, tt.wantCap, got.SQL)
			}
		})
	}
}

func TestValidate_StyleWarningsAreAdvisory(t *testing.T) {
	v := newValidator()

	got, err := v.Validate("SELECT * FROM customers WHERE name LIKE '%nguyen%' LIMIT 10", models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Warnings) < 2 {
		t.Errorf("expected SELECT * and wildcard warnings, got %v", got.Warnings)
	}
}

func TestValidate_FunctionWrappedPredicateWarns(t *testing.T) {
	v := newValidator()

	got, err := v.Validate("SELECT id FROM orders WHERE YEAR(created_at) = 2026 LIMIT 10", models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, w := range got.Warnings {
		if strings.Contains(w, "index") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SARGability warning, got %v", got.Warnings)
	}
}

func TestValidate_CostEstimate(t *testing.T) {
	v := newValidator()

	got, err := v.Validate("SELECT id FROM orders WHERE status = 'paid' LIMIT 10", models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cost != CostLow {
		t.Errorf("expected low cost, got %s", got.Cost)
	}

	got, err = v.Validate("SELECT * FROM a JOIN b ON a.id=b.a_id JOIN c ON b.id=c.b_id JOIN d ON c.id=d.c_id", models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cost != CostHigh {
		t.Errorf("expected high cost, got %s", got.Cost)
	}
}

func TestValidate_ReadOnlyCTEAccepted(t *testing.T) {
	v := newValidator()

	got, err := v.Validate("WITH recent AS (SELECT * FROM orders LIMIT 100) SELECT COUNT(*) FROM recent", models.DBTypeSQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SQL == "" {
		t.Error("expected accepted statement")
	}
}

func TestValidateSearchBody(t *testing.T) {
	v := newValidator()

	got, err := v.ValidateSearchBody(`{"query": {"match": {"city": "Hanoi"}}, "size": 10}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got.SQL, `"size":10`) {
		t.Errorf("expected size preserved, got %q", got.SQL)
	}
}

func TestValidateSearchBody_RejectsScript(t *testing.T) {
	v := newValidator()

	_, err := v.ValidateSearchBody(`{"query": {"script": {"source": "doc.remove()"}}}`)
	if !errors.Is(err, apperrors.ErrUnsafeConstruct) {
		t.Errorf("expected ErrUnsafeConstruct, got %v", err)
	}
}

func TestValidateSearchBody_RejectsNonObject(t *testing.T) {
	v := newValidator()

	_, err := v.ValidateSearchBody(`[1, 2, 3]`)
	if !errors.Is(err, apperrors.ErrUnsafeStatement) {
		t.Errorf("expected ErrUnsafeStatement, got %v", err)
	}
}

func TestValidateSearchBody_CapsSize(t *testing.T) {
	v := newValidator()

	got, err := v.ValidateSearchBody(`{"query": {"match_all": {}}, "size": 100000}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got.SQL, `"size":1000`) {
		t.Errorf("expected size capped at 1000, got %q", got.SQL)
	}
	if len(got.Warnings) == 0 {
		t.Error("expected cap warning")
	}
}
