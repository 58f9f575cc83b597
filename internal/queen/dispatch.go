package queen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apiarylabs/apiary/internal/ai"
	"github.com/apiarylabs/apiary/internal/coordinator"
	"github.com/apiarylabs/apiary/internal/hivemind"
	"github.com/apiarylabs/apiary/pkg/models"
)

// executeTeam dispatches one team objective to its strategy. The
// objective's description is enriched with summaries of previously
// completed teams so later teams build on earlier findings.
func (q *Queen) executeTeam(ctx context.Context, team models.TeamObjective, prior []models.TeamResult) models.TeamResult {
	enriched := team.Description
	if crossCtx := buildCrossTeamContext(prior); crossCtx != "" {
		enriched = fmt.Sprintf("%s\n\nContext from prior teams:\n%s", team.Description, crossCtx)
	}

	start := time.Now()

	var (
		inner    *models.InnerResult
		cost     float64
		insights []string
		err      error
	)
	switch team.OrchestrationMode {
	case models.ModeHiveMind:
		inner, cost, insights, err = q.runHiveMind(ctx, team, enriched)
	case models.ModeCoordinator:
		inner, cost, insights, err = q.runCoordinator(ctx, team, enriched)
	case models.ModeNativeProvider:
		inner, cost, insights, err = q.runNativeProvider(ctx, team, enriched)
	default:
		inner, cost, insights, err = q.runSingleShot(ctx, team, enriched)
	}

	if err != nil {
		return models.TeamResult{
			TeamID:   team.ID,
			TeamName: team.Name,
			Status:   models.TeamStatusFailed,
			Duration: time.Since(start),
			Error:    err.Error(),
		}
	}

	return models.TeamResult{
		TeamID:   team.ID,
		TeamName: team.Name,
		Status:   models.TeamStatusCompleted,
		Inner:    inner,
		Cost:     cost,
		Duration: time.Since(start),
		Insights: insights,
	}
}

func (q *Queen) runHiveMind(ctx context.Context, team models.TeamObjective, task string) (*models.InnerResult, float64, []string, error) {
	model := team.PreferredModel
	if model == "" {
		model = ai.DefaultModelForTier(models.TierMid)
	}

	cfg := hivemind.Config{
		MaxAgents:          5,
		CostLimitUSD:       q.cfg.PerTeamCostLimitUSD,
		TimeLimit:          q.cfg.PerTeamTimeLimit,
		AutoScale:          true,
		ConsensusThreshold: 0.7,
		ModelOverrides:     map[hivemind.Role]string{hivemind.RoleArchitect: model},
	}

	res, err := hivemind.New(q.exec, cfg).Execute(ctx, task)
	if err != nil {
		return nil, 0, nil, err
	}

	return &models.InnerResult{HiveMind: res}, res.TotalCost, insightsFromHiveMind(res), nil
}

func (q *Queen) runCoordinator(ctx context.Context, team models.TeamObjective, task string) (*models.InnerResult, float64, []string, error) {
	coordModel := team.PreferredModel
	if coordModel == "" {
		coordModel = ai.DefaultModelForTier(models.TierMid)
	}

	cfg := coordinator.Config{
		MaxParallel:       4,
		CostLimitUSD:      q.cfg.PerTeamCostLimitUSD,
		TimeLimit:         q.cfg.PerTeamTimeLimit,
		CoordinationModel: coordModel,
	}

	plan := models.TaskPlan{Tasks: []models.PlannedTask{
		{
			ID:          team.ID + "-investigate",
			Description: "Investigate: " + task,
			Persona:     models.PersonaInvestigate,
			Priority:    1,
		},
		{
			ID:           team.ID + "-implement",
			Description:  "Implement: " + task,
			Persona:      models.PersonaImplement,
			Dependencies: []string{team.ID + "-investigate"},
			Priority:     2,
		},
		{
			ID:           team.ID + "-verify",
			Description:  "Verify: " + task,
			Persona:      models.PersonaVerify,
			Dependencies: []string{team.ID + "-implement"},
			Priority:     3,
		},
	}}

	res, err := coordinator.New(q.exec, cfg).ExecutePlan(ctx, plan)
	if err != nil {
		return nil, 0, nil, err
	}

	return &models.InnerResult{Coordinator: res}, res.TotalCost, insightsFromCoordinator(res), nil
}

func (q *Queen) runNativeProvider(ctx context.Context, team models.TeamObjective, task string) (*models.InnerResult, float64, []string, error) {
	model := team.PreferredModel
	if model == "" {
		model = q.cfg.QueenModel
	}

	scope := "(entire project)"
	if len(team.ScopePaths) > 0 {
		scope = strings.Join(team.ScopePaths, ", ")
	}

	systemPrompt := fmt.Sprintf(`You are a specialized team working on: %s

Your team name is '%s'. Scope paths: %s

Provide a thorough, complete solution. Include:
1. Analysis of the problem
2. Detailed implementation or plan
3. Key decisions and trade-offs
4. Potential risks and mitigations`, team.Name, team.Name, scope)

	resp, err := q.exec.Execute(ctx, ai.NewChatRequest(model, systemPrompt, task, 4096, 0.3))
	if err != nil {
		return nil, 0, nil, err
	}

	cost := ai.EstimateCost(model, resp.Usage)
	inner := &models.InnerResult{Native: &models.ModelOutput{Content: resp.Content, Model: model}}
	return inner, cost, extractInsightsFromText(resp.Content), nil
}

func (q *Queen) runSingleShot(ctx context.Context, team models.TeamObjective, task string) (*models.InnerResult, float64, []string, error) {
	model := team.PreferredModel
	if model == "" {
		model = ai.DefaultModelForTier(models.TierBudget)
	}

	systemPrompt := fmt.Sprintf("You are team '%s'. Complete the following objective thoroughly and concisely.", team.Name)

	resp, err := q.exec.Execute(ctx, ai.NewChatRequest(model, systemPrompt, task, 4096, 0.3))
	if err != nil {
		return nil, 0, nil, err
	}

	cost := ai.EstimateCost(model, resp.Usage)
	inner := &models.InnerResult{SingleShot: &models.ModelOutput{Content: resp.Content, Model: model}}
	return inner, cost, extractInsightsFromText(resp.Content), nil
}

// buildCrossTeamContext summarizes completed teams for injection into the
// next wave's objectives: one truncated summary plus insights per team.
func buildCrossTeamContext(prior []models.TeamResult) string {
	var sections []string
	for _, r := range prior {
		if r.Inner == nil {
			continue
		}

		var summary string
		switch {
		case r.Inner.HiveMind != nil:
			summary = truncateString(r.Inner.HiveMind.SynthesizedOutput, 500)
		case r.Inner.Coordinator != nil:
			var outputs []string
			for _, tr := range r.Inner.Coordinator.Results {
				if tr.Success {
					outputs = append(outputs, truncateString(tr.Output, 200))
				}
			}
			summary = strings.Join(outputs, "\n")
		case r.Inner.Native != nil:
			summary = truncateString(r.Inner.Native.Content, 500)
		case r.Inner.SingleShot != nil:
			summary = truncateString(r.Inner.SingleShot.Content, 500)
		}

		insights := "none"
		if len(r.Insights) > 0 {
			insights = strings.Join(r.Insights, "; ")
		}

		sections = append(sections, fmt.Sprintf("[Team '%s'] %s\nInsights: %s", r.TeamName, summary, insights))
	}
	return strings.Join(sections, "\n\n")
}
