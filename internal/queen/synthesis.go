package queen

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/apiarylabs/apiary/internal/ai"
	"github.com/apiarylabs/apiary/pkg/models"
)

const synthesisSystemPrompt = "You are a synthesis agent. Merge multiple team outputs into a single, coherent, well-structured result. Preserve important details from each team."

// synthesize merges all team outputs into one narrative with a model
// call. When the call fails, it falls back to the deterministic section
// document so a run never loses its outputs.
func (q *Queen) synthesize(ctx context.Context, plan *models.SwarmPlan, results []models.TeamResult) string {
	if len(results) == 0 {
		return "No team outputs to synthesize."
	}

	allOutputs := renderTeamSections(plan, results)

	prompt := fmt.Sprintf(`Synthesize the following team outputs into a coherent summary.
Combine key findings, resolve any conflicts, and produce a unified result.

%s`, allOutputs)

	resp, err := q.exec.Execute(ctx, ai.NewChatRequest(q.cfg.QueenModel, synthesisSystemPrompt, prompt, 4096, 0.3))
	if err != nil {
		log.Printf("[queen] synthesis call failed, using raw outputs: %v", err)
		return fmt.Sprintf("Synthesis failed (%s). Raw team outputs:\n\n%s", err, allOutputs)
	}

	q.ledger.Add(ai.EstimateCost(q.cfg.QueenModel, resp.Usage))
	return resp.Content
}

// renderTeamSections renders one markdown section per planned team in
// plan order, covering completed, failed, and skipped teams alike.
func renderTeamSections(plan *models.SwarmPlan, results []models.TeamResult) string {
	byID := make(map[string]models.TeamResult, len(results))
	for _, r := range results {
		byID[r.TeamID] = r
	}

	var sections []string
	for _, team := range plan.Teams {
		result, ok := byID[team.ID]
		if !ok {
			continue
		}

		switch result.Status {
		case models.TeamStatusCompleted:
			content := "(no output)"
			if text := result.Inner.Text(); text != "" {
				content = text
			}
			sections = append(sections, fmt.Sprintf("## Team: %s (%s)\nMode: %s\n\n%s",
				team.Name, team.ID, team.OrchestrationMode, content))
		case models.TeamStatusFailed:
			reason := result.Error
			if reason == "" {
				reason = "unknown"
			}
			sections = append(sections, fmt.Sprintf("## Team: %s (%s) [FAILED]\nError: %s",
				team.Name, team.ID, reason))
		case models.TeamStatusSkipped:
			reason := result.Error
			if reason == "" {
				reason = "dependency failed"
			}
			sections = append(sections, fmt.Sprintf("## Team: %s (%s) [SKIPPED]\nReason: %s",
				team.Name, team.ID, reason))
		}
	}
	return strings.Join(sections, "\n\n---\n\n")
}
