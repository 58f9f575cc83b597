package hivemind

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apiarylabs/apiary/internal/ai"
	"github.com/apiarylabs/apiary/pkg/models"
)

// Config controls one hive mind orchestration.
type Config struct {
	// MaxAgents caps how many roles execute.
	MaxAgents int
	// CostLimitUSD is the spend ceiling, checked before each role.
	CostLimitUSD float64
	// TimeLimit is the wall-clock ceiling, checked before each role.
	TimeLimit time.Duration
	// AutoScale selects roles by task keywords instead of running all of them.
	AutoScale bool
	// ConsensusThreshold enables consensus scoring when positive.
	ConsensusThreshold float64
	// ModelOverrides pins specific roles to specific models.
	ModelOverrides map[Role]string
	// OnRoleStart is called before each role executes. Optional.
	OnRoleStart func(role Role)
}

// DefaultConfig returns the standard hive mind configuration.
func DefaultConfig() Config {
	return Config{
		MaxAgents:          5,
		CostLimitUSD:       5.0,
		TimeLimit:          5 * time.Minute,
		AutoScale:          true,
		ConsensusThreshold: 0.7,
	}
}

// Validate reports all configuration problems at once.
func (c *Config) Validate() error {
	var issues []string
	if c.MaxAgents < 1 {
		issues = append(issues, "max agents must be at least 1")
	}
	if c.CostLimitUSD < 0 {
		issues = append(issues, "cost limit cannot be negative")
	}
	if c.TimeLimit < time.Second {
		issues = append(issues, "time limit must be at least 1s")
	}
	if c.ConsensusThreshold < 0 || c.ConsensusThreshold > 1 {
		issues = append(issues, "consensus threshold must be between 0.0 and 1.0")
	}
	if len(issues) > 0 {
		return fmt.Errorf("invalid hive mind config: %s", strings.Join(issues, "; "))
	}
	return nil
}

// Engine runs hive mind orchestrations against a model executor.
type Engine struct {
	exec ai.Executor
	cfg  Config
}

// New creates a hive mind engine.
func New(exec ai.Executor, cfg Config) *Engine {
	return &Engine{exec: exec, cfg: cfg}
}

// Execute runs the selected roles sequentially against the task. Each
// role after the architect sees the architect's plan alongside the
// original task. Budget and time ceilings are checked between roles, so
// they are soft limits.
func (e *Engine) Execute(ctx context.Context, task string) (*models.HiveMindResult, error) {
	if strings.TrimSpace(task) == "" {
		return nil, fmt.Errorf("task cannot be empty")
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	result := &models.HiveMindResult{
		RunID:  uuid.New().String(),
		Task:   task,
		Status: models.HiveStatusComplete,
	}

	roles := e.selectRoles(task)
	log.Printf("[hivemind] run %s: %d roles selected", result.RunID, len(roles))

	start := time.Now()
	enriched := task
	totalCost := 0.0

	for _, role := range roles {
		if time.Since(start) >= e.cfg.TimeLimit {
			result.Status = models.HiveStatusTimedOut
			result.Error = "time limit reached"
			break
		}
		if totalCost >= e.cfg.CostLimitUSD {
			result.Status = models.HiveStatusBudgetExceeded
			result.Error = "cost limit reached"
			break
		}

		if e.cfg.OnRoleStart != nil {
			e.cfg.OnRoleStart(role)
		}

		out := e.executeRole(ctx, role, enriched)
		if role == RoleArchitect && out.Success {
			enriched = fmt.Sprintf("Original task: %s\n\nArchitect's plan:\n%s", task, out.Content)
		}

		totalCost += out.Cost
		result.AgentOutputs = append(result.AgentOutputs, out)
	}

	if e.cfg.ConsensusThreshold > 0 {
		score := computeConsensus(result.AgentOutputs)
		result.ConsensusScore = &score
	}

	result.SynthesizedOutput = synthesizeOutputs(result.AgentOutputs)
	result.TotalCost = totalCost
	result.Duration = time.Since(start)
	return result, nil
}

// selectRoles picks the roles for a task, capped at MaxAgents, in
// pipeline order.
func (e *Engine) selectRoles(task string) []Role {
	var roles []Role
	if e.cfg.AutoScale {
		roles = ClassifyTaskRoles(task)
	} else {
		roles = AllRoles()
	}

	if len(roles) > e.cfg.MaxAgents {
		roles = roles[:e.cfg.MaxAgents]
	}

	sort.Slice(roles, func(i, j int) bool {
		return roles[i].ExecutionOrder() < roles[j].ExecutionOrder()
	})
	return roles
}

func (e *Engine) executeRole(ctx context.Context, role Role, task string) models.AgentOutput {
	model := e.cfg.ModelOverrides[role]
	if model == "" {
		model = ai.DefaultModelForTier(role.Tier())
	}

	start := time.Now()
	resp, err := e.exec.Execute(ctx, ai.NewChatRequest(model, role.SystemPrompt(), task, 4096, 0.3))
	if err != nil {
		log.Printf("[hivemind] role %s failed: %v", role, err)
		return models.AgentOutput{
			Role:     string(role),
			Model:    model,
			Duration: time.Since(start),
			Success:  false,
			Error:    err.Error(),
		}
	}

	return models.AgentOutput{
		Role:         string(role),
		Model:        model,
		Content:      resp.Content,
		Cost:         ai.EstimateCost(model, resp.Usage),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Duration:     time.Since(start),
		Success:      true,
	}
}
