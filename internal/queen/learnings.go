package queen

import (
	"fmt"
	"log"

	"github.com/apiarylabs/apiary/internal/memory"
	"github.com/apiarylabs/apiary/pkg/models"
)

// recordLearnings writes success/failure patterns and team insights to
// the collective memory. Store failures are logged and skipped per
// entry; recording must never affect the run outcome. Returns how many
// entries were written.
func (q *Queen) recordLearnings(runID string, plan *models.SwarmPlan, results []models.TeamResult) int {
	if q.mem == nil {
		return 0
	}

	modeByID := make(map[string]models.OrchestrationMode, len(plan.Teams))
	for _, team := range plan.Teams {
		modeByID[team.ID] = team.OrchestrationMode
	}

	recorded := 0
	for _, result := range results {
		mode := modeByID[result.TeamID]
		tags := []string{"swarm"}

		switch result.Status {
		case models.TeamStatusCompleted:
			content := fmt.Sprintf("Team '%s' (%s) completed successfully in %dms with cost $%.4f",
				result.TeamName, mode, result.Duration.Milliseconds(), result.Cost)
			if _, err := q.mem.Remember(memory.CategorySuccessPattern, content,
				append(tags, "success", result.TeamName), runID, result.TeamID); err != nil {
				log.Printf("[queen] failed to record success pattern: %v", err)
			} else {
				recorded++
			}
		case models.TeamStatusFailed:
			reason := result.Error
			if reason == "" {
				reason = "unknown error"
			}
			content := fmt.Sprintf("Team '%s' (%s) failed: %s", result.TeamName, mode, reason)
			if _, err := q.mem.Remember(memory.CategoryFailurePattern, content,
				append(tags, "failure", result.TeamName), runID, result.TeamID); err != nil {
				log.Printf("[queen] failed to record failure pattern: %v", err)
			} else {
				recorded++
			}
		}

		for _, insight := range result.Insights {
			if insight == "" {
				continue
			}
			content := fmt.Sprintf("Insight from team '%s': %s", result.TeamName, insight)
			if _, err := q.mem.Remember(memory.CategoryModelInsight, content,
				[]string{"swarm", "insight", result.TeamName}, runID, result.TeamID); err != nil {
				log.Printf("[queen] failed to record insight: %v", err)
			} else {
				recorded++
			}
		}
	}
	return recorded
}
