// Package sqlcheck statically validates candidate queries before execution.
// Checks run in a fixed order: statement type, dangerous constructs, row-cap
// enforcement, then advisory style warnings. The first two reject, the row
// cap rewrites, the warnings never block.
package sqlcheck

import (
	"fmt"
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// CostEstimate is an advisory guess at query expense.
type CostEstimate string

const (
	CostLow    CostEstimate = "low"
	CostMedium CostEstimate = "medium"
	CostHigh   CostEstimate = "high"
)

// Validation is an accepted, possibly rewritten, query plus advisories.
type Validation struct {
	SQL      string       `json:"sql"`
	Warnings []string     `json:"warnings,omitempty"`
	Cost     CostEstimate `json:"cost_estimate"`
}

// modifyingCTEPattern matches CTEs that contain data-modifying operations,
// e.g. WITH deleted AS (DELETE FROM ...) SELECT * FROM deleted.
var modifyingCTEPattern = regexp.MustCompile(`(?i)\bAS\s*\(\s*(INSERT|UPDATE|DELETE)\b`)

var (
	limitPattern        = regexp.MustCompile(`(?i)\blimit\s+\d+`)
	topPattern          = regexp.MustCompile(`(?i)\btop\s*\(?\s*\d+`)
	fetchFirstPattern   = regexp.MustCompile(`(?i)\bfetch\s+(first|next)\s+\d+`)
	joinPattern         = regexp.MustCompile(`(?i)\bjoin\b`)
	selectStarPattern   = regexp.MustCompile(`(?i)^\s*select\s+(distinct\s+)?\*`)
	leadingWildcard     = regexp.MustCompile(`(?i)like\s+'%`)
	wrappedPredicate    = regexp.MustCompile(`(?i)\bwhere\b.*\b(upper|lower|year|month|day|date|substr|substring|trim|cast|convert)\s*\(\s*[a-z_][\w.]*\s*[,)]`)
	aggregateFuncPrefix = regexp.MustCompile(`(?i)^\s*(count|sum|avg|min|max)\s*\(`)
)

// denylist of constructs that reach the filesystem, the OS, or timing
// primitives. Matched case-insensitively against the whole statement.
var denylist = []string{
	"into outfile",
	"into dumpfile",
	"load_file(",
	"load data",
	"xp_cmdshell",
	"sp_configure",
	"openrowset",
	"opendatasource",
	"pg_read_file",
	"pg_ls_dir",
	"pg_sleep(",
	"sleep(",
	"benchmark(",
	"waitfor delay",
	"utl_file",
	"dbms_pipe",
}

// Validator applies the static safety checks with a configured row cap.
type Validator struct {
	maxRows int
	logger  *zap.Logger
}

// New creates a validator. maxRows bounds the row-cap rewrite.
func New(maxRows int, logger *zap.Logger) *Validator {
	return &Validator{maxRows: maxRows, logger: logger.Named("sqlcheck")}
}

// MaxRows returns the configured row cap.
func (v *Validator) MaxRows() int { return v.maxRows }

// Validate runs the full check sequence over a SQL statement. Rejections
// return apperrors.ErrUnsafeStatement or apperrors.ErrUnsafeConstruct and
// are terminal for the request.
func (v *Validator) Validate(sql string, dbType models.DBType) (*Validation, error) {
	normalized := stripTrailingSemicolon(strings.TrimSpace(sql))
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty statement", apperrors.ErrUnsafeStatement)
	}

	if hasSemicolonOutsideStrings(normalized) {
		return nil, fmt.Errorf("%w: multiple statements", apperrors.ErrUnsafeStatement)
	}

	upper := strings.ToUpper(normalized)
	switch {
	case strings.HasPrefix(upper, "SELECT"):
	case strings.HasPrefix(upper, "WITH"):
		if modifyingCTEPattern.MatchString(normalized) {
			return nil, fmt.Errorf("%w: data-modifying CTE", apperrors.ErrUnsafeStatement)
		}
	default:
		keyword := firstWord(upper)
		return nil, fmt.Errorf("%w: %s is not a read-only statement", apperrors.ErrUnsafeStatement, keyword)
	}

	if err := v.scanConstructs(normalized); err != nil {
		return nil, err
	}

	result := &Validation{SQL: normalized}
	result.Cost = estimateCost(normalized)

	v.applyRowCap(result, dbType)
	v.collectWarnings(result)

	return result, nil
}

// scanConstructs runs the denylist and fingerprints every string literal
// for injection patterns.
func (v *Validator) scanConstructs(sql string) error {
	lower := strings.ToLower(sql)
	for _, banned := range denylist {
		if strings.Contains(lower, banned) {
			return fmt.Errorf("%w: %s", apperrors.ErrUnsafeConstruct, strings.TrimSuffix(banned, "("))
		}
	}

	for _, literal := range stringLiterals(sql) {
		if isSQLi, fingerprint := libinjection.IsSQLi(literal); isSQLi {
			v.logger.Warn("injection pattern in string literal",
				zap.String("fingerprint", string(fingerprint)))
			return fmt.Errorf("%w: injection pattern in literal", apperrors.ErrUnsafeConstruct)
		}
	}
	return nil
}

// applyRowCap rewrites the statement to bound its result size unless a
// limiting clause is already present or the projection is aggregate-only.
func (v *Validator) applyRowCap(result *Validation, dbType models.DBType) {
	sql := result.SQL
	if limitPattern.MatchString(sql) || topPattern.MatchString(sql) || fetchFirstPattern.MatchString(sql) {
		return
	}
	if isAggregateOnly(sql) {
		return
	}

	switch dbType {
	case models.DBTypeSQLServer:
		upper := strings.ToUpper(sql)
		if !strings.HasPrefix(upper, "SELECT") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("could not apply the %d row cap to this statement; it may return a large result", v.maxRows))
			return
		}
		result.SQL = fmt.Sprintf("SELECT TOP (%d)%s", v.maxRows, sql[len("SELECT"):])
	default:
		result.SQL = fmt.Sprintf("%s LIMIT %d", sql, v.maxRows)
	}
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("no row limit specified; capped at %d rows", v.maxRows))
}

// collectWarnings records advisory style findings without blocking.
func (v *Validator) collectWarnings(result *Validation) {
	sql := result.SQL
	if selectStarPattern.MatchString(sql) {
		result.Warnings = append(result.Warnings, "SELECT * returns every column; consider listing only the columns you need")
	}
	if leadingWildcard.MatchString(sql) {
		result.Warnings = append(result.Warnings, "leading-wildcard LIKE prevents index use")
	}
	if n := len(joinPattern.FindAllStringIndex(sql, -1)); n >= 3 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("query joins %d tables; verify the join conditions", n+1))
	}
	if wrappedPredicate.MatchString(sql) {
		result.Warnings = append(result.Warnings, "function applied to a column in WHERE prevents index use")
	}
}

// isAggregateOnly reports whether every top-level projection item is an
// aggregate call and no GROUP BY is present, meaning the statement returns
// a single row without needing a cap.
func isAggregateOnly(sql string) bool {
	upper := strings.ToUpper(sql)
	if strings.Contains(upper, "GROUP BY") {
		return false
	}
	start := strings.Index(upper, "SELECT")
	if start < 0 {
		return false
	}
	fromIdx := indexAtDepthZero(sql[start+len("SELECT"):], "FROM")
	var projection string
	if fromIdx < 0 {
		projection = sql[start+len("SELECT"):]
	} else {
		projection = sql[start+len("SELECT") : start+len("SELECT")+fromIdx]
	}
	projection = strings.TrimSpace(projection)
	projection = strings.TrimPrefix(strings.TrimPrefix(projection, "DISTINCT "), "distinct ")

	items := splitAtDepthZero(projection, ',')
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !aggregateFuncPrefix.MatchString(strings.TrimSpace(item)) {
			return false
		}
	}
	return true
}

// indexAtDepthZero finds a keyword outside parentheses and string literals,
// matched case-insensitively on word boundaries.
func indexAtDepthZero(s, keyword string) int {
	upper := strings.ToUpper(s)
	kw := strings.ToUpper(keyword)
	depth := 0
	inString := false
	for i := 0; i+len(kw) <= len(upper); i++ {
		c := upper[i]
		if inString {
			if c == '\'' {
				inString = false
			}
			continue
		}
		switch c {
		case '\'':
			inString = true
			continue
		case '(':
			depth++
			continue
		case ')':
			depth--
			continue
		}
		if depth != 0 {
			continue
		}
		if strings.HasPrefix(upper[i:], kw) {
			beforeOK := i == 0 || !isWordByte(upper[i-1])
			afterOK := i+len(kw) == len(upper) || !isWordByte(upper[i+len(kw)])
			if beforeOK && afterOK {
				return i
			}
		}
	}
	return -1
}

func splitAtDepthZero(s string, sep byte) []string {
	var parts []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\'' {
				inString = false
			}
			continue
		}
		switch c {
		case '\'':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// estimateCost is a coarse advisory estimate from joins, projection width,
// and filter presence.
func estimateCost(sql string) CostEstimate {
	upper := strings.ToUpper(sql)
	score := 0
	score += 2 * len(joinPattern.FindAllStringIndex(sql, -1))
	if selectStarPattern.MatchString(sql) {
		score++
	}
	if !strings.Contains(upper, "WHERE") {
		score += 2
	}
	if leadingWildcard.MatchString(sql) {
		score += 2
	}
	switch {
	case score >= 5:
		return CostHigh
	case score >= 2:
		return CostMedium
	}
	return CostLow
}

// stringLiterals extracts the contents of single-quoted literals, honoring
// the doubled-quote escape.
func stringLiterals(sql string) []string {
	var literals []string
	var current strings.Builder
	inString := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if !inString {
			if c == '\'' {
				inString = true
				current.Reset()
			}
			continue
		}
		if c == '\'' {
			if i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteByte('\'')
				i++
				continue
			}
			inString = false
			literals = append(literals, current.String())
			continue
		}
		current.WriteByte(c)
	}
	return literals
}

// hasSemicolonOutsideStrings reports a semicolon outside string literals,
// which after normalization means multiple statements.
func hasSemicolonOutsideStrings(sql string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)
	state := stateNormal
	prev := rune(0)
	for _, c := range sql {
		switch state {
		case stateNormal:
			switch c {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if c == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if c == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = c
	}
	return false
}

func stripTrailingSemicolon(sql string) string {
	sql = strings.TrimRight(sql, " \t\n\r")
	if strings.HasSuffix(sql, ";") {
		sql = strings.TrimRight(strings.TrimSuffix(sql, ";"), " \t\n\r")
	}
	return sql
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
