package queen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/apiarylabs/apiary/internal/ai"
	"github.com/apiarylabs/apiary/internal/memory"
	"github.com/apiarylabs/apiary/pkg/models"
)

// Plan extraction failure taxonomy. Callers can classify why a planning
// response was unusable.
var (
	// ErrNoArrayFound means the response contains no '[' at all.
	ErrNoArrayFound = errors.New("no JSON array found in planning response")
	// ErrNoClosingBracket means a '[' was found but never closed.
	ErrNoClosingBracket = errors.New("no closing bracket found in planning response")
	// ErrMalformedArray means the brackets are in the wrong order.
	ErrMalformedArray = errors.New("malformed JSON array in planning response")
	// ErrEmptyPlan means the model produced a syntactically valid but
	// empty objective list.
	ErrEmptyPlan = errors.New("planning produced zero team objectives")
)

const planningSystemPrompt = "You are a swarm orchestration planner. Produce valid JSON only."

const planningPromptFormat = `You are a Queen coordinator decomposing a goal into team objectives.
Given the goal, create a JSON array of team objectives. Each team should have:
- "id": unique string id like "team-1"
- "name": short descriptive name
- "description": what this team should accomplish
- "dependencies": array of team ids that must complete first (empty for independent teams)
- "orchestration_mode": one of "hivemind", "coordinator", "native_provider", "single_shot"
- "scope_paths": array of relevant file/directory paths (can be empty)
- "priority": 0-9 (0 = highest priority)

Goal: %s
%s

Respond with ONLY a JSON array.`

// Plan asks the queen model to decompose the goal into a validated swarm
// plan. The planning call's cost is charged to the ledger even when the
// response turns out to be unusable.
func (q *Queen) Plan(ctx context.Context, goal string) (*models.SwarmPlan, error) {
	memoryContext := q.gatherMemoryContext(goal)
	prompt := fmt.Sprintf(planningPromptFormat, goal, memoryContext)

	resp, err := q.exec.Execute(ctx, ai.NewChatRequest(q.cfg.QueenModel, planningSystemPrompt, prompt, 4096, 0.3))
	if err != nil {
		return nil, fmt.Errorf("planning call: %w", err)
	}
	q.ledger.Add(ai.EstimateCost(q.cfg.QueenModel, resp.Usage))

	plan, err := parsePlanResponse(resp.Content)
	if err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid swarm plan: %w", err)
	}

	log.Printf("[queen] planned %d team objectives", len(plan.Teams))
	return plan, nil
}

// parsePlanResponse extracts the outermost JSON array from prose-wrapped
// model output and decodes it into team objectives.
func parsePlanResponse(raw string) (*models.SwarmPlan, error) {
	trimmed := strings.TrimSpace(raw)

	start := strings.Index(trimmed, "[")
	if start < 0 {
		return nil, ErrNoArrayFound
	}
	end := strings.LastIndex(trimmed, "]")
	if end < 0 {
		return nil, ErrNoClosingBracket
	}
	if end <= start {
		return nil, ErrMalformedArray
	}

	var teams []models.TeamObjective
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &teams); err != nil {
		return nil, fmt.Errorf("parse team objectives: %w", err)
	}
	if len(teams) == 0 {
		return nil, ErrEmptyPlan
	}

	return &models.SwarmPlan{Teams: teams}, nil
}

// gatherMemoryContext pulls past learnings relevant to the goal from the
// collective memory: per significant goal term, a few success patterns,
// failure patterns, and model insights, deduplicated across terms.
func (q *Queen) gatherMemoryContext(goal string) string {
	if q.mem == nil {
		return ""
	}

	var terms []string
	for _, word := range strings.Fields(goal) {
		if len(word) >= 4 {
			terms = append(terms, word)
		}
		if len(terms) == 5 {
			break
		}
	}

	type recallSpec struct {
		category memory.Category
		limit    int
		prefix   string
	}
	specs := []recallSpec{
		{memory.CategorySuccessPattern, 3, "- Success pattern: "},
		{memory.CategoryFailurePattern, 2, "- Failure to avoid: "},
		{memory.CategoryModelInsight, 2, "- Model insight: "},
	}

	seen := make(map[int64]bool)
	var lines []string
	for _, term := range terms {
		for _, spec := range specs {
			entries, err := q.mem.Recall(term, spec.category, nil, spec.limit)
			if err != nil {
				log.Printf("[queen] memory recall failed for %q: %v", term, err)
				continue
			}
			for _, entry := range entries {
				if seen[entry.ID] {
					continue
				}
				seen[entry.ID] = true
				lines = append(lines, spec.prefix+entry.Content)
			}
		}
	}

	if len(lines) == 0 {
		return ""
	}
	return "\nRelevant past learnings:\n" + strings.Join(lines, "\n")
}
