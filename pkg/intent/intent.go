// Package intent classifies user queries into the closed set of assistant intents.
package intent

import "regexp"

// Intent is the classified purpose of a query. It decides which context
// sources are consulted and which prompt rules apply downstream.
type Intent string

const (
	// Knowledge covers FAQ/policy/product questions answered from the KB only.
	Knowledge Intent = "knowledge"
	// Login covers authentication and access problems.
	Login Intent = "transactional:login"
	// Feature covers post-login feature issues (balance, transfers, statements).
	Feature Intent = "transactional:feature"
	// Transactional is the generic fallback for anything else that still
	// implies an account-system lookup.
	Transactional Intent = "transactional"

	// Deflected is not a classification result; it is the intent label
	// reported when the PII gate short-circuits a request before
	// classification runs.
	Deflected Intent = "pii_deflected"
)

// classRule maps a query pattern to its resulting intent. Rules are evaluated
// in order; the first match wins.
type classRule struct {
	re     *regexp.Regexp
	intent Intent
}

var classRules = []classRule{
	{regexp.MustCompile(`(?i)(login|sign\s*in|otp\s*fail|password\s*reset|password|locked|blocked|credential|2fa|mfa)`), Login},
	{regexp.MustCompile(`(?i)(balance\s*enquir(y|ies)|balance\s*check|view\s*balance|check\s*my\s*balance|mini\s*statement|txn\s*history|fund\s*transfer|bill\s*pay|card\s*controls)`), Feature},
	{regexp.MustCompile(`(?i)(how\s+to|how\s+do\s+i|what\s+is|faq|policy|interest\s*rate|charges|limits|kyc|\bfd\b|\brd\b|loan|card\s*pin|reset\s*pin|debit\s*card|credit\s*card|fees|guidelines|rbi|fixed\s*deposit)`), Knowledge},
	{regexp.MustCompile(`(?i)(balance|statement|failed\s*login|netbanking|transfer|imps|neft|upi\s*limit|account\s*status)`), Transactional},
}

// Classify maps a query to exactly one intent. It is total and deterministic:
// unmatched or empty input resolves to Knowledge, the retrieval-only path that
// touches neither the account system nor any customer state.
func Classify(query string) Intent {
	for _, r := range classRules {
		if r.re.MatchString(query) {
			return r.intent
		}
	}
	return Knowledge
}
