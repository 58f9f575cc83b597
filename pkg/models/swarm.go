// Package models defines the shared data model for swarm orchestration:
// run configuration, team objectives, plans, statuses, and results.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrchestrationMode selects how a single team objective is executed.
type OrchestrationMode string

const (
	// ModeHiveMind runs the multi-agent consensus pipeline.
	ModeHiveMind OrchestrationMode = "hive_mind"
	// ModeCoordinator runs dependency-ordered task dispatch with personas.
	ModeCoordinator OrchestrationMode = "coordinator"
	// ModeNativeProvider issues one rich model call with a structured system prompt.
	ModeNativeProvider OrchestrationMode = "native_provider"
	// ModeSingleShot issues one lightweight model call. Simplest and cheapest.
	ModeSingleShot OrchestrationMode = "single_shot"
)

// ParseOrchestrationMode parses a mode string leniently, accepting common
// spelling variants. Unknown strings fall back to ModeSingleShot.
func ParseOrchestrationMode(s string) OrchestrationMode {
	switch strings.ReplaceAll(strings.ToLower(s), "-", "_") {
	case "hivemind", "hive_mind":
		return ModeHiveMind
	case "coordinator":
		return ModeCoordinator
	case "native_provider", "native":
		return ModeNativeProvider
	case "single_shot", "singleshot", "single":
		return ModeSingleShot
	default:
		return ModeSingleShot
	}
}

// Valid returns true if the mode is a known value.
func (m OrchestrationMode) Valid() bool {
	switch m {
	case ModeHiveMind, ModeCoordinator, ModeNativeProvider, ModeSingleShot:
		return true
	default:
		return false
	}
}

// UnmarshalJSON applies lenient parsing so planner output like "hivemind"
// or "native" decodes to the canonical mode.
func (m *OrchestrationMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseOrchestrationMode(s)
	return nil
}

// TeamObjective is a single team's objective within a swarm plan.
type TeamObjective struct {
	// ID is the unique identifier, e.g. "team-1".
	ID string `json:"id"`
	// Name is a short descriptive name.
	Name string `json:"name"`
	// Description details what this team should accomplish.
	Description string `json:"description"`
	// Dependencies lists team IDs that must complete before this one starts.
	Dependencies []string `json:"dependencies"`
	// OrchestrationMode selects the execution strategy for this team.
	OrchestrationMode OrchestrationMode `json:"orchestration_mode"`
	// ScopePaths lists relevant file/directory paths. Advisory only.
	ScopePaths []string `json:"scope_paths,omitempty"`
	// Priority is a 0-9 hint (0 = highest). Not used for scheduler ordering.
	Priority int `json:"priority"`
	// PreferredModel overrides the default model for the mode, if set.
	PreferredModel string `json:"preferred_model,omitempty"`
}

// UnmarshalJSON decodes an objective, defaulting Priority to 5 when absent.
func (t *TeamObjective) UnmarshalJSON(data []byte) error {
	type alias TeamObjective
	aux := &struct {
		Priority *int `json:"priority"`
		*alias
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.Priority != nil {
		t.Priority = *aux.Priority
	} else {
		t.Priority = 5
	}
	return nil
}

// SwarmConfig is the immutable configuration for one swarm run.
type SwarmConfig struct {
	// QueenModel is the model used for the planning and synthesis calls.
	QueenModel string `json:"queen_model" mapstructure:"queen_model"`
	// MaxParallelTeams caps how many ready teams are taken per wave.
	MaxParallelTeams int `json:"max_parallel_teams" mapstructure:"max_parallel_teams"`
	// TotalCostLimitUSD is the spend ceiling across the whole run.
	TotalCostLimitUSD float64 `json:"total_cost_limit_usd" mapstructure:"total_cost_limit_usd"`
	// TotalTimeLimit is the wall-clock ceiling for the whole run.
	// Checked at wave boundaries only, so it is a soft limit.
	TotalTimeLimit time.Duration `json:"total_time_limit" mapstructure:"total_time_limit"`
	// PerTeamCostLimitUSD is the spend ceiling handed to each strategy engine.
	PerTeamCostLimitUSD float64 `json:"per_team_cost_limit_usd" mapstructure:"per_team_cost_limit_usd"`
	// PerTeamTimeLimit is the time ceiling handed to each strategy engine.
	PerTeamTimeLimit time.Duration `json:"per_team_time_limit" mapstructure:"per_team_time_limit"`
}

// DefaultSwarmConfig returns the standard run configuration.
func DefaultSwarmConfig() SwarmConfig {
	return SwarmConfig{
		QueenModel:          "claude-sonnet-4-5-20250929",
		MaxParallelTeams:    3,
		TotalCostLimitUSD:   25.0,
		TotalTimeLimit:      30 * time.Minute,
		PerTeamCostLimitUSD: 5.0,
		PerTeamTimeLimit:    5 * time.Minute,
	}
}

// SwarmPlan is the dependency-ordered set of team objectives for one run.
type SwarmPlan struct {
	Teams []TeamObjective `json:"teams"`
}

// Validate checks the plan for emptiness, dangling or self dependencies,
// and cycles. A plan that validates can always be fully scheduled.
func (p *SwarmPlan) Validate() error {
	if len(p.Teams) == 0 {
		return fmt.Errorf("swarm plan has no teams")
	}

	ids := make(map[string]bool, len(p.Teams))
	for _, t := range p.Teams {
		if t.ID == "" {
			return fmt.Errorf("team %q has an empty id", t.Name)
		}
		ids[t.ID] = true
	}

	for _, t := range p.Teams {
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				return fmt.Errorf("team %q depends on itself", t.ID)
			}
			if !ids[dep] {
				return fmt.Errorf("team %q depends on unknown team %q", t.ID, dep)
			}
		}
	}

	// Cycle detection via topological sort.
	inDeg := make(map[string]int, len(p.Teams))
	for _, t := range p.Teams {
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
		for _, t := range p.Teams {
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

	if visited != len(p.Teams) {
		return fmt.Errorf("dependency cycle detected in swarm plan")
	}

	return nil
}

// TeamStatus is the terminal state of a single team's execution.
type TeamStatus string

const (
	// TeamStatusPending indicates the team has not been dispatched yet.
	TeamStatusPending TeamStatus = "pending"
	// TeamStatusRunning indicates the team is executing.
	TeamStatusRunning TeamStatus = "running"
	// TeamStatusCompleted indicates the team finished successfully.
	TeamStatusCompleted TeamStatus = "completed"
	// TeamStatusFailed indicates the team's strategy call failed.
	TeamStatusFailed TeamStatus = "failed"
	// TeamStatusSkipped indicates the team never ran (failed dependency,
	// exhausted budget or time, or an unresolvable dependency graph).
	TeamStatusSkipped TeamStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s TeamStatus) Valid() bool {
	switch s {
	case TeamStatusPending, TeamStatusRunning, TeamStatusCompleted, TeamStatusFailed, TeamStatusSkipped:
		return true
	default:
		return false
	}
}

// ModelOutput is the result of a single-call strategy (native or single-shot).
type ModelOutput struct {
	// Content is the raw model response text.
	Content string `json:"content"`
	// Model is the model that produced the response.
	Model string `json:"model"`
}

// InnerResult is the strategy-specific payload of a completed team. Exactly
// one field is non-nil, matching the team's orchestration mode.
type InnerResult struct {
	HiveMind    *HiveMindResult    `json:"hive_mind,omitempty"`
	Coordinator *CoordinatorResult `json:"coordinator,omitempty"`
	Native      *ModelOutput       `json:"native,omitempty"`
	SingleShot  *ModelOutput       `json:"single_shot,omitempty"`
}

// Text returns the textual summary of the result regardless of which
// strategy produced it: the consensus engine's merged output, the
// coordinator's successful task outputs joined, or the raw model text.
func (r *InnerResult) Text() string {
	switch {
	case r == nil:
		return ""
	case r.HiveMind != nil:
		return r.HiveMind.SynthesizedOutput
	case r.Coordinator != nil:
		var parts []string
		for _, t := range r.Coordinator.Results {
			if t.Success {
				parts = append(parts, t.Output)
			}
		}
		return strings.Join(parts, "\n\n")
	case r.Native != nil:
		return r.Native.Content
	case r.SingleShot != nil:
		return r.SingleShot.Content
	default:
		return ""
	}
}

// TeamResult is the outcome of executing one team objective.
type TeamResult struct {
	// TeamID is the objective's id.
	TeamID string `json:"team_id"`
	// TeamName is the objective's name.
	TeamName string `json:"team_name"`
	// Status is the terminal state of the team.
	Status TeamStatus `json:"status"`
	// Inner is the strategy payload. Present only when Status is Completed.
	Inner *InnerResult `json:"inner,omitempty"`
	// Cost is the spend attributed to this team in USD.
	Cost float64 `json:"cost"`
	// Duration is the wall-clock time spent executing the team.
	Duration time.Duration `json:"duration"`
	// Insights are free-text observations extracted from the run.
	Insights []string `json:"insights,omitempty"`
	// Error explains why the team failed or was skipped.
	Error string `json:"error,omitempty"`
}

// SwarmStatus is a run-wide phase/status value used for progress reporting.
// It never affects control flow.
type SwarmStatus string

const (
	SwarmStatusPlanning       SwarmStatus = "planning"
	SwarmStatusExecuting      SwarmStatus = "executing"
	SwarmStatusCrossTeamSync  SwarmStatus = "cross_team_sync"
	SwarmStatusTeamStarted    SwarmStatus = "team_started"
	SwarmStatusTeamCompleted  SwarmStatus = "team_completed"
	SwarmStatusTeamFailed     SwarmStatus = "team_failed"
	SwarmStatusSynthesizing   SwarmStatus = "synthesizing"
	SwarmStatusComplete       SwarmStatus = "complete"
	SwarmStatusPartialSuccess SwarmStatus = "partial_success"
	SwarmStatusFailed         SwarmStatus = "failed"
	SwarmStatusTimedOut       SwarmStatus = "timed_out"
	SwarmStatusBudgetExceeded SwarmStatus = "budget_exceeded"
)

// SwarmResult is the terminal output of a swarm run.
type SwarmResult struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`
	// Goal is the original high-level goal.
	Goal string `json:"goal"`
	// Status is the final run status.
	Status SwarmStatus `json:"status"`
	// Plan is the validated plan that was executed.
	Plan SwarmPlan `json:"plan"`
	// TeamResults holds one entry per objective, in dispatch order.
	TeamResults []TeamResult `json:"team_results"`
	// SynthesizedOutput is the merged narrative across all teams.
	SynthesizedOutput string `json:"synthesized_output"`
	// TotalCost is the run's total spend in USD.
	TotalCost float64 `json:"total_cost"`
	// Duration is the run's total wall-clock time.
	Duration time.Duration `json:"duration"`
	// LearningsRecorded counts memory entries written for this run.
	LearningsRecorded int `json:"learnings_recorded"`
}

// StatusCallback receives swarm-level status updates. It is purely
// observational and must never block scheduling.
type StatusCallback func(status SwarmStatus, detail string)
