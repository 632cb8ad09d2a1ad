// Package kb provides the knowledge-base retrieval boundary: a vector-search
// collaborator interface, a sqlite-vec backed implementation, and the
// fail-open retriever the pipeline consumes.
//
// The corpus is FAQ/policy/how-to text only. It must never contain PII or live
// account data; the pipeline relies on that precondition.
package kb

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Snippet is one retrieved knowledge chunk, best-first ordered by the caller.
type Snippet struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// Searcher is the external vector-search collaborator. It may be unavailable;
// the Retriever absorbs that.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Snippet, error)
}

// Retriever wraps a Searcher with a bounded timeout and fail-open semantics:
// any failure degrades to an empty result, never to an error that aborts the
// request.
type Retriever struct {
	searcher Searcher
	topK     int
	timeout  time.Duration
	logger   *zap.Logger
}

func NewRetriever(searcher Searcher, topK int, timeout time.Duration, logger *zap.Logger) *Retriever {
	return &Retriever{searcher: searcher, topK: topK, timeout: timeout, logger: logger}
}

// Retrieve returns up to topK snippets for the query. An unconfigured or
// failing collaborator yields an empty slice and the pipeline proceeds
// without knowledge context.
func (r *Retriever) Retrieve(ctx context.Context, query string) []Snippet {
	if r.searcher == nil || strings.TrimSpace(query) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	snippets, err := r.searcher.Search(ctx, query, r.topK)
	if err != nil {
		r.logger.Warn("knowledge retrieval failed, continuing without context", zap.Error(err))
		return nil
	}
	return snippets
}

// FeatureHint rewrites a feature-issue query into the canned KB troubleshooting
// search used for the feature flow. The raw query stays out of the search so
// retrieval keys on procedures, not on customer phrasing.
func FeatureHint(query string) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "balance"):
		return "NetBanking balance enquiry troubleshooting"
	case strings.Contains(q, "transfer"), strings.Contains(q, "imps"), strings.Contains(q, "neft"):
		return "Fund transfer troubleshooting"
	case strings.Contains(q, "statement"):
		return "Mini statement / account statement troubleshooting"
	case strings.Contains(q, "pin") && (strings.Contains(q, "debit") || strings.Contains(q, "credit")):
		return "Reset debit/credit card PIN steps"
	default:
		return "NetBanking feature troubleshooting steps"
	}
}
