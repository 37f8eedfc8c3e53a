package gateway

import "strings"

// ComplexityClassifier decides whether a query looks expensive enough to
// warrant a larger timeout and token budget. It is a swappable function
// because the default is a deliberately simple keyword heuristic.
type ComplexityClassifier func(query string) bool

// complexKeywords is the fixed containment list the heuristic scans for.
// Analysis and financial terms correlate with long model runs.
var complexKeywords = []string{
	"分析", "股票", "趋势", "投资", "风险", "研究", "调研",
	"analysis", "analyze", "stock", "trend", "investment", "risk", "research",
}

// IsComplexQuery is the default ComplexityClassifier: case-insensitive
// substring containment against the fixed keyword list.
func IsComplexQuery(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range complexKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Token budgets paired with the heuristic.
const (
	simpleMaxTokens  = 2000
	complexMaxTokens = 4000
)

// MaxTokensFor returns the max-token budget for a query when the request
// does not carry one.
func MaxTokensFor(complex bool) int {
	if complex {
		return complexMaxTokens
	}
	return simpleMaxTokens
}
