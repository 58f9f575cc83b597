// Package queen implements the swarm orchestrator core: it plans a set
// of dependency-ordered team objectives from one goal, executes them in
// waves under budget and time ceilings through four interchangeable
// strategies, synthesizes the outputs, and records learnings in the
// collective memory.
package queen

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/apiarylabs/apiary/internal/ai"
	"github.com/apiarylabs/apiary/internal/memory"
	"github.com/apiarylabs/apiary/pkg/models"
)

// MemoryStore is the slice of the collective memory the Queen uses:
// writing learnings and recalling past ones. *memory.Store satisfies it.
type MemoryStore interface {
	Remember(category memory.Category, content string, tags []string, sourceRunID, sourceTeamID string) (int64, error)
	Recall(query string, category memory.Category, tags []string, limit int) ([]memory.Entry, error)
}

// Queen orchestrates one swarm run end to end.
type Queen struct {
	exec     ai.Executor
	cfg      models.SwarmConfig
	mem      MemoryStore
	onStatus models.StatusCallback
	ledger   CostLedger
}

// New creates a Queen with the given executor and run configuration.
// The batch cap must be at least 1 or the wave loop never dispatches,
// so lower values are raised.
func New(exec ai.Executor, cfg models.SwarmConfig) *Queen {
	if cfg.MaxParallelTeams < 1 {
		cfg.MaxParallelTeams = 1
	}
	return &Queen{exec: exec, cfg: cfg}
}

// WithMemory attaches a collective memory store. Without one, planning
// runs without past learnings and no learnings are recorded.
func (q *Queen) WithMemory(mem MemoryStore) *Queen {
	q.mem = mem
	return q
}

// WithStatusCallback attaches a progress observer. The callback must be
// fast; it is invoked synchronously on the orchestration path.
func (q *Queen) WithStatusCallback(cb models.StatusCallback) *Queen {
	q.onStatus = cb
	return q
}

// TotalCost returns the run's accumulated spend so far.
func (q *Queen) TotalCost() float64 {
	return q.ledger.Total()
}

func (q *Queen) emit(status models.SwarmStatus, detail string) {
	if q.onStatus != nil {
		q.onStatus(status, detail)
	}
}

// Execute runs the full pipeline for one goal: plan, execute in waves,
// synthesize, record learnings. The returned result always accounts for
// every planned team, executed or skipped.
func (q *Queen) Execute(ctx context.Context, goal string) (*models.SwarmResult, error) {
	runID := uuid.New().String()
	start := time.Now()

	q.emit(models.SwarmStatusPlanning, "Planning team objectives")
	plan, err := q.Plan(ctx, goal)
	if err != nil {
		return nil, err
	}

	return q.executeWithPlan(ctx, runID, goal, plan, start)
}

// ExecutePlan runs a pre-authored plan for the goal, skipping the
// planning model call. The plan is validated first.
func (q *Queen) ExecutePlan(ctx context.Context, goal string, plan *models.SwarmPlan) (*models.SwarmResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return q.executeWithPlan(ctx, uuid.New().String(), goal, plan, time.Now())
}

func (q *Queen) executeWithPlan(ctx context.Context, runID, goal string, plan *models.SwarmPlan, start time.Time) (*models.SwarmResult, error) {
	q.emit(models.SwarmStatusExecuting, "Executing team objectives")
	teamResults, exhausted := q.executePlan(ctx, plan, start)

	q.emit(models.SwarmStatusSynthesizing, "Synthesizing team outputs")
	synthesized := q.synthesize(ctx, plan, teamResults)

	learnings := q.recordLearnings(runID, plan, teamResults)

	completed, failed := 0, 0
	for _, r := range teamResults {
		switch r.Status {
		case models.TeamStatusCompleted:
			completed++
		case models.TeamStatusFailed:
			failed++
		}
	}

	// Resource exhaustion takes precedence over the completion counts.
	status := exhausted
	if status == "" {
		switch {
		case failed == 0:
			status = models.SwarmStatusComplete
		case completed > 0:
			status = models.SwarmStatusPartialSuccess
		default:
			status = models.SwarmStatusFailed
		}
	}
	q.emit(status, "Swarm execution finished")

	log.Printf("[queen] run %s finished: %s (%d completed, %d failed, $%.4f)",
		runID, status, completed, failed, q.ledger.Total())

	return &models.SwarmResult{
		RunID:             runID,
		Goal:              goal,
		Status:            status,
		Plan:              *plan,
		TeamResults:       teamResults,
		SynthesizedOutput: synthesized,
		TotalCost:         q.ledger.Total(),
		Duration:          time.Since(start),
		LearningsRecorded: learnings,
	}, nil
}
