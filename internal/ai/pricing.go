package ai

import "strings"

// modelPrice holds per-million-token USD rates for a model family.
type modelPrice struct {
	match  string
	input  float64
	output float64
}

// Ordered by specificity: "gpt-4o" must match before "gpt-4".
var priceTable = []modelPrice{
	{"opus", 15.0, 75.0},
	{"sonnet", 3.0, 15.0},
	{"haiku", 0.80, 4.0},
	{"gpt-4o", 2.50, 10.0},
	{"gpt-4", 10.0, 30.0},
	{"gpt-3.5", 0.50, 1.50},
}

// EstimateCost estimates the USD cost of a call from its token usage,
// matching the model identifier against known families by substring.
// Unknown models (local models included) cost zero.
func EstimateCost(model string, usage TokenUsage) float64 {
	lower := strings.ToLower(model)
	for _, p := range priceTable {
		if strings.Contains(lower, p.match) {
			in := float64(usage.InputTokens) / 1_000_000.0 * p.input
			out := float64(usage.OutputTokens) / 1_000_000.0 * p.output
			return in + out
		}
	}
	return 0
}
