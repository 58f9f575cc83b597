package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/apiarylabs/apiary/internal/ai"
	"github.com/apiarylabs/apiary/pkg/models"
)

// Config controls one coordinator plan execution.
type Config struct {
	// MaxParallel caps how many ready tasks are taken per wave.
	MaxParallel int
	// CostLimitUSD is the spend ceiling, checked at wave boundaries.
	CostLimitUSD float64
	// TimeLimit is the wall-clock ceiling, checked at wave boundaries.
	TimeLimit time.Duration
	// CoordinationModel is the model AuthorPlan uses to write task
	// plans; task execution uses persona tier defaults.
	CoordinationModel string
	// OnTaskStart is called before each task executes. Optional.
	OnTaskStart func(task models.PlannedTask)
}

// DefaultConfig returns the standard coordinator configuration.
func DefaultConfig() Config {
	return Config{
		MaxParallel:       4,
		CostLimitUSD:      10.0,
		TimeLimit:         10 * time.Minute,
		CoordinationModel: ai.DefaultModelForTier(models.TierMid),
	}
}

// Engine executes task plans against a model executor.
type Engine struct {
	exec     ai.Executor
	cfg      Config
	registry *Registry
}

// New creates a coordinator engine with the built-in persona registry.
// The wave cap must be at least 1 or no task is ever taken, so lower
// values are raised.
func New(exec ai.Executor, cfg Config) *Engine {
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}
	return &Engine{exec: exec, cfg: cfg, registry: NewRegistry()}
}

// Registry returns the engine's persona registry so callers can register
// custom personas.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// authoringSystemPrompt instructs the coordination model to emit a task
// plan in the shape ParseTaskPlan accepts.
const authoringSystemPrompt = `You are a task coordination planner. Break the objective into small, dependency-ordered tasks. Produce valid JSON only.

Respond with a JSON array of task objects:
[
  {
    "id": "task-1",
    "description": "What this task should accomplish",
    "persona": "investigate|implement|verify|critique|debug|code_review",
    "dependencies": [],
    "priority": 3
  }
]

Rules:
- Use 2 to 6 tasks.
- Every dependency must reference another task id in the array.
- No dependency cycles.`

// AuthorPlan asks the coordination model to write a task plan for the
// objective and validates it. Callers wanting a richer breakdown than a
// fixed investigate/implement/verify chain start here, then hand the
// plan to ExecutePlan.
func (e *Engine) AuthorPlan(ctx context.Context, objective string) (models.TaskPlan, error) {
	if strings.TrimSpace(objective) == "" {
		return models.TaskPlan{}, fmt.Errorf("objective cannot be empty")
	}

	resp, err := e.exec.Execute(ctx, ai.NewChatRequest(e.cfg.CoordinationModel, authoringSystemPrompt, objective, 2048, 0.3))
	if err != nil {
		return models.TaskPlan{}, fmt.Errorf("author task plan: %w", err)
	}

	plan, err := ParseTaskPlan(resp.Content)
	if err != nil {
		return models.TaskPlan{}, err
	}

	log.Printf("[coordinator] authored %d tasks", len(plan.Tasks))
	return plan, nil
}

// ExecutePlan runs the plan in dependency waves. A finished task unblocks
// its dependents whether it succeeded or failed; the per-task results
// carry the failures. Cost and time ceilings are checked between waves.
func (e *Engine) ExecutePlan(ctx context.Context, plan models.TaskPlan) (*models.CoordinatorResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task plan: %w", err)
	}

	result := &models.CoordinatorResult{Plan: plan}
	start := time.Now()

	remaining := make([]models.PlannedTask, len(plan.Tasks))
	copy(remaining, plan.Tasks)
	completed := make(map[string]bool)

	for len(remaining) > 0 {
		if time.Since(start) >= e.cfg.TimeLimit {
			log.Printf("[coordinator] time limit reached with %d tasks left", len(remaining))
			break
		}
		if result.TotalCost >= e.cfg.CostLimitUSD {
			log.Printf("[coordinator] cost limit reached with %d tasks left", len(remaining))
			break
		}

		var ready, waiting []models.PlannedTask
		for _, task := range remaining {
			if depsSatisfied(task, completed) {
				ready = append(ready, task)
			} else {
				waiting = append(waiting, task)
			}
		}

		if len(ready) == 0 {
			log.Printf("[coordinator] %d tasks stalled on unmet dependencies", len(remaining))
			break
		}

		batch := ready
		if len(batch) > e.cfg.MaxParallel {
			waiting = append(waiting, batch[e.cfg.MaxParallel:]...)
			batch = batch[:e.cfg.MaxParallel]
		}
		remaining = waiting

		for _, task := range batch {
			if e.cfg.OnTaskStart != nil {
				e.cfg.OnTaskStart(task)
			}
			taskResult := e.executeTask(ctx, task)
			completed[task.ID] = true
			result.TotalCost += taskResult.Cost
			result.Results = append(result.Results, taskResult)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func depsSatisfied(task models.PlannedTask, completed map[string]bool) bool {
	for _, dep := range task.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

func (e *Engine) executeTask(ctx context.Context, task models.PlannedTask) models.TaskResult {
	persona := e.registry.Get(task.Persona)
	model := ai.DefaultModelForTier(persona.Tier)

	start := time.Now()
	resp, err := e.exec.Execute(ctx, ai.NewChatRequest(model, persona.SystemPrompt, task.Description, persona.MaxTokens, 0.3))
	if err != nil {
		log.Printf("[coordinator] task %s failed: %v", task.ID, err)
		return models.TaskResult{
			TaskID:   task.ID,
			Persona:  task.Persona,
			Duration: time.Since(start),
			Success:  false,
			Error:    err.Error(),
		}
	}

	return models.TaskResult{
		TaskID:   task.ID,
		Persona:  task.Persona,
		Output:   resp.Content,
		Cost:     ai.EstimateCost(model, resp.Usage),
		Duration: time.Since(start),
		Success:  true,
	}
}

// rawTask mirrors the JSON shape a planning model emits for one task.
type rawTask struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Persona      string   `json:"persona"`
	Dependencies []string `json:"dependencies"`
	Priority     *int     `json:"priority"`
}

// ParseTaskPlan parses a model-authored task plan, stripping markdown
// code fences and applying lenient persona parsing and a default
// priority of 3.
func ParseTaskPlan(raw string) (models.TaskPlan, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var rawTasks []rawTask
	if err := json.Unmarshal([]byte(cleaned), &rawTasks); err != nil {
		return models.TaskPlan{}, fmt.Errorf("parse task plan: %w", err)
	}

	plan := models.TaskPlan{Tasks: make([]models.PlannedTask, 0, len(rawTasks))}
	for _, rt := range rawTasks {
		priority := 3
		if rt.Priority != nil {
			priority = *rt.Priority
		}
		plan.Tasks = append(plan.Tasks, models.PlannedTask{
			ID:           rt.ID,
			Description:  rt.Description,
			Persona:      models.ParsePersonaKind(rt.Persona),
			Dependencies: rt.Dependencies,
			Priority:     priority,
		})
	}

	if err := plan.Validate(); err != nil {
		return models.TaskPlan{}, err
	}
	return plan, nil
}
