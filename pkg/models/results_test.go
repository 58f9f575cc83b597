package models

import (
	"strings"
	"testing"
)

func TestParsePersonaKind(t *testing.T) {
	tests := []struct {
		input string
		want  PersonaKind
	}{
		{"investigate", PersonaInvestigate},
		{"implement", PersonaImplement},
		{"verify", PersonaVerify},
		{"critique", PersonaCritique},
		{"debug", PersonaDebug},
		{"code_review", PersonaCodeReview},
		{"codereview", PersonaCodeReview},
		{"code-review", PersonaCodeReview},
		{"CODE_REVIEW", PersonaCodeReview},
		{"  implement  ", PersonaImplement},
		{"unknown", PersonaImplement},
		{"", PersonaImplement},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParsePersonaKind(tt.input); got != tt.want {
				t.Errorf("ParsePersonaKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func plannedTask(id string, deps ...string) PlannedTask {
	return PlannedTask{
		ID:           id,
		Description:  "task " + id,
		Persona:      PersonaImplement,
		Dependencies: deps,
		Priority:     3,
	}
}

func TestTaskPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		plan    TaskPlan
		wantErr string
	}{
		{"empty plan is valid", TaskPlan{}, ""},
		{
			"linear plan is valid",
			TaskPlan{Tasks: []PlannedTask{
				plannedTask("t1"),
				plannedTask("t2", "t1"),
			}},
			"",
		},
		{
			"unknown dependency",
			TaskPlan{Tasks: []PlannedTask{plannedTask("t1", "ghost")}},
			"unknown task",
		},
		{
			"self dependency",
			TaskPlan{Tasks: []PlannedTask{plannedTask("t1", "t1")}},
			"depends on itself",
		},
		{
			"cycle",
			TaskPlan{Tasks: []PlannedTask{
				plannedTask("t1", "t2"),
				plannedTask("t2", "t1"),
			}},
			"cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestTaskPlan_RootTasksAndDependents(t *testing.T) {
	plan := TaskPlan{Tasks: []PlannedTask{
		plannedTask("t1"),
		plannedTask("t2", "t1"),
		plannedTask("t3", "t1"),
		plannedTask("t4", "t2", "t3"),
	}}

	roots := plan.RootTasks()
	if len(roots) != 1 || roots[0].ID != "t1" {
		t.Errorf("RootTasks() = %v, want [t1]", roots)
	}

	deps := plan.DependentsOf("t1")
	if len(deps) != 2 {
		t.Fatalf("DependentsOf(t1) returned %d tasks, want 2", len(deps))
	}
	if deps[0].ID != "t2" || deps[1].ID != "t3" {
		t.Errorf("DependentsOf(t1) = %v, want [t2 t3]", deps)
	}

	if got := plan.DependentsOf("t4"); len(got) != 0 {
		t.Errorf("DependentsOf(t4) = %v, want none", got)
	}
}

func TestHiveMindResult_AgentCounts(t *testing.T) {
	res := HiveMindResult{AgentOutputs: []AgentOutput{
		{Role: "Architect", Success: true},
		{Role: "Coder", Success: false, Error: "rate limited"},
		{Role: "Reviewer", Success: true},
	}}

	if got := res.SuccessfulAgents(); got != 2 {
		t.Errorf("SuccessfulAgents() = %d, want 2", got)
	}
	if got := res.FailedAgents(); got != 1 {
		t.Errorf("FailedAgents() = %d, want 1", got)
	}
}

func TestCoordinatorResult_TaskCounts(t *testing.T) {
	res := CoordinatorResult{Results: []TaskResult{
		{TaskID: "t1", Success: true},
		{TaskID: "t2", Success: true},
		{TaskID: "t3", Success: false},
	}}

	if got := res.SuccessfulTasks(); got != 2 {
		t.Errorf("SuccessfulTasks() = %d, want 2", got)
	}
	if got := res.FailedTasks(); got != 1 {
		t.Errorf("FailedTasks() = %d, want 1", got)
	}
}
