package models

import (
	"fmt"
	"strings"
	"time"
)

// AgentOutput is the result of one agent role execution inside the
// hive mind engine.
type AgentOutput struct {
	// Role is the label of the agent role that ran, e.g. "Architect".
	Role string `json:"role"`
	// Model is the model the role executed with.
	Model string `json:"model"`
	// Content is the model response text. Empty when the call failed.
	Content string `json:"content"`
	// Cost is the estimated spend of the call in USD.
	Cost float64 `json:"cost"`
	// InputTokens counts prompt tokens reported by the provider.
	InputTokens int64 `json:"input_tokens"`
	// OutputTokens counts completion tokens reported by the provider.
	OutputTokens int64 `json:"output_tokens"`
	// Duration is the wall-clock time of the call.
	Duration time.Duration `json:"duration"`
	// Success reports whether the call succeeded.
	Success bool `json:"success"`
	// Error holds the failure reason when Success is false.
	Error string `json:"error,omitempty"`
}

// HiveStatus is the terminal state of a hive mind orchestration.
type HiveStatus string

const (
	HiveStatusComplete       HiveStatus = "complete"
	HiveStatusFailed         HiveStatus = "failed"
	HiveStatusBudgetExceeded HiveStatus = "budget_exceeded"
	HiveStatusTimedOut       HiveStatus = "timed_out"
)

// HiveMindResult is the outcome of a hive mind orchestration: the per-role
// outputs, the merged text, and the agreement score across roles.
type HiveMindResult struct {
	// RunID uniquely identifies the orchestration.
	RunID string `json:"run_id"`
	// Task is the original task text.
	Task string `json:"task"`
	// Status is the terminal state.
	Status HiveStatus `json:"status"`
	// AgentOutputs holds one entry per executed role, in execution order.
	AgentOutputs []AgentOutput `json:"agent_outputs"`
	// SynthesizedOutput is the deterministic merge of all role outputs.
	SynthesizedOutput string `json:"synthesized_output"`
	// TotalCost is the orchestration's spend in USD.
	TotalCost float64 `json:"total_cost"`
	// Duration is the orchestration's wall-clock time.
	Duration time.Duration `json:"duration"`
	// ConsensusScore is the mean pairwise agreement across successful
	// outputs, nil when consensus scoring was disabled.
	ConsensusScore *float64 `json:"consensus_score,omitempty"`
	// Error holds the failure reason when Status is not Complete.
	Error string `json:"error,omitempty"`
}

// SuccessfulAgents counts role executions that succeeded.
func (r *HiveMindResult) SuccessfulAgents() int {
	n := 0
	for _, out := range r.AgentOutputs {
		if out.Success {
			n++
		}
	}
	return n
}

// FailedAgents counts role executions that failed.
func (r *HiveMindResult) FailedAgents() int {
	return len(r.AgentOutputs) - r.SuccessfulAgents()
}

// PersonaKind identifies a coordinator persona.
type PersonaKind string

const (
	PersonaInvestigate PersonaKind = "investigate"
	PersonaImplement   PersonaKind = "implement"
	PersonaVerify      PersonaKind = "verify"
	PersonaCritique    PersonaKind = "critique"
	PersonaDebug       PersonaKind = "debug"
	PersonaCodeReview  PersonaKind = "code_review"
)

// ParsePersonaKind parses a persona name leniently. Unknown names fall
// back to PersonaImplement.
func ParsePersonaKind(s string) PersonaKind {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "investigate":
		return PersonaInvestigate
	case "implement":
		return PersonaImplement
	case "verify":
		return PersonaVerify
	case "critique":
		return PersonaCritique
	case "debug":
		return PersonaDebug
	case "code_review", "codereview":
		return PersonaCodeReview
	default:
		return PersonaImplement
	}
}

// PlannedTask is one task in a coordinator plan.
type PlannedTask struct {
	// ID is the unique task identifier.
	ID string `json:"id"`
	// Description is the task instruction handed to the persona.
	Description string `json:"description"`
	// Persona selects the system prompt and tier for the task.
	Persona PersonaKind `json:"persona"`
	// Dependencies lists task IDs that must complete first.
	Dependencies []string `json:"dependencies"`
	// Priority orders tasks for display. Advisory only.
	Priority int `json:"priority"`
}

// TaskPlan is a dependency-ordered set of coordinator tasks.
type TaskPlan struct {
	Tasks []PlannedTask `json:"tasks"`
}

// Validate checks the task plan for dangling or self dependencies and
// cycles. An empty plan is valid (nothing to do).
func (p *TaskPlan) Validate() error {
	ids := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		ids[t.ID] = true
	}

	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				return fmt.Errorf("task %q depends on itself", t.ID)
			}
			if !ids[dep] {
				return fmt.Errorf("task %q depends on unknown task %q", t.ID, dep)
			}
		}
	}

	inDeg := make(map[string]int, len(p.Tasks))
	for _, t := range p.Tasks {
		inDeg[t.ID] = len(t.Dependencies)
	}

	var queue []string
	for id, deg := range inDeg {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		current := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		visited++
		for _, t := range p.Tasks {
			for _, dep := range t.Dependencies {
				if dep == current {
					inDeg[t.ID]--
					if inDeg[t.ID] == 0 {
						queue = append(queue, t.ID)
					}
				}
			}
		}
	}

	if visited != len(p.Tasks) {
		return fmt.Errorf("dependency cycle detected in task plan")
	}

	return nil
}

// RootTasks returns the tasks with no dependencies.
func (p *TaskPlan) RootTasks() []PlannedTask {
	var roots []PlannedTask
	for _, t := range p.Tasks {
		if len(t.Dependencies) == 0 {
			roots = append(roots, t)
		}
	}
	return roots
}

// DependentsOf returns the tasks that depend on the given task id.
func (p *TaskPlan) DependentsOf(id string) []PlannedTask {
	var deps []PlannedTask
	for _, t := range p.Tasks {
		for _, d := range t.Dependencies {
			if d == id {
				deps = append(deps, t)
				break
			}
		}
	}
	return deps
}

// TaskResult is the outcome of one coordinator task execution.
type TaskResult struct {
	// TaskID is the planned task's id.
	TaskID string `json:"task_id"`
	// Persona is the persona the task ran with.
	Persona PersonaKind `json:"persona"`
	// Output is the model response text. Empty on failure.
	Output string `json:"output"`
	// Cost is the estimated spend of the task in USD.
	Cost float64 `json:"cost"`
	// Duration is the wall-clock time of the task.
	Duration time.Duration `json:"duration"`
	// Success reports whether the task succeeded.
	Success bool `json:"success"`
	// Error holds the failure reason when Success is false.
	Error string `json:"error,omitempty"`
}

// CoordinatorResult is the outcome of a coordinator plan execution.
type CoordinatorResult struct {
	// Plan is the executed task plan.
	Plan TaskPlan `json:"plan"`
	// Results holds one entry per executed task, in dispatch order.
	Results []TaskResult `json:"results"`
	// TotalCost is the sum of task costs in USD.
	TotalCost float64 `json:"total_cost"`
	// Duration is the plan execution's wall-clock time.
	Duration time.Duration `json:"duration"`
}

// SuccessfulTasks counts tasks that succeeded.
func (r *CoordinatorResult) SuccessfulTasks() int {
	n := 0
	for _, t := range r.Results {
		if t.Success {
			n++
		}
	}
	return n
}

// FailedTasks counts tasks that failed.
func (r *CoordinatorResult) FailedTasks() int {
	return len(r.Results) - r.SuccessfulTasks()
}
