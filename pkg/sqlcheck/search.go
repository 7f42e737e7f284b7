package sqlcheck

import (
	"encoding/json"
	"fmt"

	"github.com/rickey-cpu/AIQuery/pkg/apperrors"
)

// maxSearchBodyBytes bounds the accepted _search request body size.
const maxSearchBodyBytes = 16 * 1024

// search body keys that execute scripts or mutate state
var bannedSearchKeys = map[string]struct{}{
	"script":           {},
	"script_fields":    {},
	"script_score":     {},
	"runtime_mappings": {},
	"pipeline":         {},
}

// ValidateSearchBody checks a search-engine request body: it must be a
// single JSON object, free of script-executing keys, with its size bounded
// by the row cap.
func (v *Validator) ValidateSearchBody(body string) (*Validation, error) {
	if len(body) > maxSearchBodyBytes {
		return nil, fmt.Errorf("%w: search body exceeds %d bytes", apperrors.ErrUnsafeConstruct, maxSearchBodyBytes)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("%w: search body is not a JSON object", apperrors.ErrUnsafeStatement)
	}

	if key := findBannedKey(parsed); key != "" {
		return nil, fmt.Errorf("%w: search body uses %q", apperrors.ErrUnsafeConstruct, key)
	}

	result := &Validation{Cost: CostLow}

	size, hasSize := parsed["size"].(float64)
	if !hasSize || int(size) > v.maxRows {
		parsed["size"] = v.maxRows
		if hasSize {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("requested size capped at %d", v.maxRows))
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no size specified; capped at %d documents", v.maxRows))
		}
	}

	rewritten, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnsafeStatement, err)
	}
	result.SQL = string(rewritten)
	return result, nil
}

// findBannedKey walks the body recursively and returns the first banned key
// encountered, or empty.
func findBannedKey(node any) string {
	switch val := node.(type) {
	case map[string]any:
		for key, child := range val {
			if _, banned := bannedSearchKeys[key]; banned {
				return key
			}
			if found := findBannedKey(child); found != "" {
				return found
			}
		}
	case []any:
		for _, child := range val {
			if found := findBannedKey(child); found != "" {
				return found
			}
		}
	}
	return ""
}
