package queen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/apiarylabs/apiary/pkg/models"
)

// insightIndicators are the phrases that mark a sentence as worth
// carrying forward to later teams and into the collective memory.
var insightIndicators = []string{
	"important", "critical", "key finding", "recommendation", "warning",
	"risk", "trade-off", "tradeoff", "decision", "lesson learned",
}

// extractInsightsFromText scans free text for sentences containing an
// insight indicator. At most 5 insights are returned; very short or very
// long sentences are discarded.
func extractInsightsFromText(text string) []string {
	var insights []string
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n'
	})

	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		if len(trimmed) < 10 || len(trimmed) > 500 {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, indicator := range insightIndicators {
			if strings.Contains(lower, indicator) {
				insights = append(insights, trimmed)
				break
			}
		}
		if len(insights) == 5 {
			break
		}
	}
	return insights
}

// insightsFromHiveMind summarizes a hive mind run: cost/agent counts and
// notable consensus levels.
func insightsFromHiveMind(res *models.HiveMindResult) []string {
	var insights []string
	if res.TotalCost > 0 {
		insights = append(insights, fmt.Sprintf("Total cost: $%.4f, %d agents succeeded, %d failed",
			res.TotalCost, res.SuccessfulAgents(), res.FailedAgents()))
	}
	if res.ConsensusScore != nil {
		score := *res.ConsensusScore
		if score < 0.5 {
			insights = append(insights, fmt.Sprintf("Low consensus (%.2f): agents disagreed significantly", score))
		} else if score > 0.9 {
			insights = append(insights, fmt.Sprintf("High consensus (%.2f): strong agreement", score))
		}
	}
	return insights
}

// insightsFromCoordinator summarizes a coordinator run's task counts and
// spend.
func insightsFromCoordinator(res *models.CoordinatorResult) []string {
	successful := res.SuccessfulTasks()
	failed := res.FailedTasks()
	if successful == 0 && failed == 0 {
		return nil
	}
	return []string{fmt.Sprintf("Coordinator: %d tasks succeeded, %d failed, cost $%.4f",
		successful, failed, res.TotalCost)}
}

// truncateString shortens s to at most max bytes, never splitting a
// UTF-8 rune, appending "..." when anything was cut.
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return "..."
	}

	boundary := 0
	for i, r := range s {
		if i >= max-3 {
			break
		}
		boundary = i + utf8.RuneLen(r)
		if boundary > max-3 {
			boundary = i
			break
		}
	}
	return s[:boundary] + "..."
}
