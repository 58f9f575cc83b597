package queen

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/apiarylabs/apiary/pkg/models"
)

// executePlan runs the plan in dependency waves. Per wave it checks the
// global time and budget ceilings, partitions the remaining teams into
// ready and waiting, skips teams whose dependencies failed (failure
// propagates transitively), and dispatches up to MaxParallelTeams ready
// teams. It returns one result per planned team and, when a ceiling
// tripped, the terminal status to report.
func (q *Queen) executePlan(ctx context.Context, plan *models.SwarmPlan, start time.Time) ([]models.TeamResult, models.SwarmStatus) {
	remaining := make([]models.TeamObjective, len(plan.Teams))
	copy(remaining, plan.Teams)

	completedIDs := make(map[string]bool)
	failedIDs := make(map[string]bool)
	var results []models.TeamResult

	for len(remaining) > 0 {
		if time.Since(start) >= q.cfg.TotalTimeLimit {
			q.emit(models.SwarmStatusTimedOut, "Swarm time limit reached")
			results = append(results, skipAll(remaining, "Swarm time limit reached")...)
			return results, models.SwarmStatusTimedOut
		}
		if q.ledger.Total() >= q.cfg.TotalCostLimitUSD {
			q.emit(models.SwarmStatusBudgetExceeded, "Swarm budget exceeded")
			results = append(results, skipAll(remaining, "Swarm budget exceeded")...)
			return results, models.SwarmStatusBudgetExceeded
		}

		var ready, blocked []models.TeamObjective
		for _, team := range remaining {
			if allDepsIn(team, completedIDs) {
				ready = append(ready, team)
			} else {
				blocked = append(blocked, team)
			}
		}

		// Teams blocked on a failed dependency are skipped, and count as
		// failed themselves so the skip propagates down the chain.
		var waiting []models.TeamObjective
		for _, team := range blocked {
			if anyDepIn(team, failedIDs) {
				failedIDs[team.ID] = true
				results = append(results, skipTeam(team, "Dependency failed"))
			} else {
				waiting = append(waiting, team)
			}
		}

		if len(ready) == 0 {
			if len(waiting) > 0 {
				log.Printf("[queen] %d teams unschedulable", len(waiting))
				results = append(results, skipAll(waiting, "Unresolvable dependency")...)
			}
			return results, ""
		}

		prior := completedResults(results)

		batch := ready
		if len(batch) > q.cfg.MaxParallelTeams {
			waiting = append(waiting, batch[q.cfg.MaxParallelTeams:]...)
			batch = batch[:q.cfg.MaxParallelTeams]
		}
		remaining = waiting

		if len(prior) > 0 && len(batch) > 0 {
			q.emit(models.SwarmStatusCrossTeamSync,
				fmt.Sprintf("Sharing %d insights with %d teams", len(prior), len(batch)))
		}

		for _, team := range batch {
			q.emit(models.SwarmStatusTeamStarted, fmt.Sprintf("Starting team '%s' (%s)", team.Name, team.ID))

			result := q.executeTeam(ctx, team, prior)
			if result.Status == models.TeamStatusCompleted {
				completedIDs[team.ID] = true
				q.emit(models.SwarmStatusTeamCompleted, fmt.Sprintf("Team '%s' completed", team.Name))
			} else {
				failedIDs[team.ID] = true
				reason := result.Error
				if reason == "" {
					reason = "unknown error"
				}
				q.emit(models.SwarmStatusTeamFailed, fmt.Sprintf("Team '%s' failed: %s", team.Name, reason))
			}

			q.ledger.Add(result.Cost)
			results = append(results, result)
		}
	}

	return results, ""
}

func allDepsIn(team models.TeamObjective, set map[string]bool) bool {
	for _, dep := range team.Dependencies {
		if !set[dep] {
			return false
		}
	}
	return true
}

func anyDepIn(team models.TeamObjective, set map[string]bool) bool {
	for _, dep := range team.Dependencies {
		if set[dep] {
			return true
		}
	}
	return false
}

func skipTeam(team models.TeamObjective, reason string) models.TeamResult {
	return models.TeamResult{
		TeamID:   team.ID,
		TeamName: team.Name,
		Status:   models.TeamStatusSkipped,
		Error:    reason,
	}
}

func skipAll(teams []models.TeamObjective, reason string) []models.TeamResult {
	skipped := make([]models.TeamResult, 0, len(teams))
	for _, team := range teams {
		skipped = append(skipped, skipTeam(team, reason))
	}
	return skipped
}

func completedResults(results []models.TeamResult) []models.TeamResult {
	var completed []models.TeamResult
	for _, r := range results {
		if r.Status == models.TeamStatusCompleted {
			completed = append(completed, r)
		}
	}
	return completed
}
