package tools

import "strings"

// stop words excluded from term extraction, English plus Vietnamese
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "from": {}, "by": {}, "with": {}, "and": {},
	"or": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"all": {}, "any": {}, "each": {}, "every": {}, "do": {}, "does": {},
	"did": {}, "show": {}, "list": {}, "get": {}, "give": {}, "find": {},
	"me": {}, "my": {}, "i": {}, "we": {}, "you": {}, "it": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "what": {}, "which": {},
	"who": {}, "when": {}, "where": {}, "how": {}, "many": {}, "much": {},
	"có": {}, "là": {}, "của": {}, "cho": {}, "các": {}, "những": {},
	"bao": {}, "nhiêu": {}, "tất": {}, "cả": {}, "xem": {}, "cho tôi": {},
	"tôi": {}, "hãy": {}, "và": {}, "hoặc": {}, "trong": {}, "từ": {},
}

// ExtractTerms tokenizes a question, drops stop words, and appends adjacent
// two-word phrases so multi-word names ("order items", "total amount")
// survive extraction. Order is deterministic: single tokens in question
// order, then bigrams.
func ExtractTerms(question string) []string {
	raw := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', '?', '!', ';', ':', '(', ')', '"', '\'':
			return true
		}
		return false
	})

	var tokens []string
	seen := map[string]struct{}{}
	for _, tok := range raw {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	terms := make([]string, len(tokens))
	copy(terms, tokens)
	for i := 0; i+1 < len(tokens); i++ {
		bigram := tokens[i] + " " + tokens[i+1]
		if _, dup := seen[bigram]; dup {
			continue
		}
		seen[bigram] = struct{}{}
		terms = append(terms, bigram)
	}
	return terms
}
