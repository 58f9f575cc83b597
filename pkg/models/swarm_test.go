package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseOrchestrationMode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  OrchestrationMode
	}{
		{"canonical hive_mind", "hive_mind", ModeHiveMind},
		{"hivemind one word", "hivemind", ModeHiveMind},
		{"hyphenated hive-mind", "hive-mind", ModeHiveMind},
		{"uppercase HiveMind", "HiveMind", ModeHiveMind},
		{"coordinator", "coordinator", ModeCoordinator},
		{"native_provider", "native_provider", ModeNativeProvider},
		{"native shorthand", "native", ModeNativeProvider},
		{"single_shot", "single_shot", ModeSingleShot},
		{"singleshot one word", "singleshot", ModeSingleShot},
		{"single shorthand", "single", ModeSingleShot},
		{"unknown falls back to single_shot", "quantum", ModeSingleShot},
		{"empty falls back to single_shot", "", ModeSingleShot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseOrchestrationMode(tt.input); got != tt.want {
				t.Errorf("ParseOrchestrationMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOrchestrationMode_Valid(t *testing.T) {
	for _, m := range []OrchestrationMode{ModeHiveMind, ModeCoordinator, ModeNativeProvider, ModeSingleShot} {
		if !m.Valid() {
			t.Errorf("mode %q should be valid", m)
		}
	}
	if OrchestrationMode("warp").Valid() {
		t.Error("unknown mode should not be valid")
	}
}

func TestTeamObjective_UnmarshalJSON(t *testing.T) {
	t.Run("defaults priority to 5 when absent", func(t *testing.T) {
		data := `{"id":"team-1","name":"Research","description":"dig in","dependencies":[],"orchestration_mode":"single_shot"}`
		var obj TeamObjective
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if obj.Priority != 5 {
			t.Errorf("Priority = %d, want 5", obj.Priority)
		}
	})

	t.Run("keeps explicit priority including zero", func(t *testing.T) {
		data := `{"id":"team-1","name":"Research","description":"dig in","dependencies":[],"orchestration_mode":"coordinator","priority":0}`
		var obj TeamObjective
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if obj.Priority != 0 {
			t.Errorf("Priority = %d, want 0", obj.Priority)
		}
		if obj.OrchestrationMode != ModeCoordinator {
			t.Errorf("OrchestrationMode = %q, want %q", obj.OrchestrationMode, ModeCoordinator)
		}
	})

	t.Run("lenient mode spelling", func(t *testing.T) {
		data := `{"id":"team-2","name":"Build","description":"do it","dependencies":["team-1"],"orchestration_mode":"hivemind"}`
		var obj TeamObjective
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if obj.OrchestrationMode != ModeHiveMind {
			t.Errorf("OrchestrationMode = %q, want %q", obj.OrchestrationMode, ModeHiveMind)
		}
	})
}

func team(id string, deps ...string) TeamObjective {
	return TeamObjective{
		ID:                id,
		Name:              "Team " + id,
		Description:       "objective " + id,
		Dependencies:      deps,
		OrchestrationMode: ModeSingleShot,
		Priority:          5,
	}
}

func TestSwarmPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		plan    SwarmPlan
		wantErr string
	}{
		{
			name:    "empty plan is rejected",
			plan:    SwarmPlan{},
			wantErr: "no teams",
		},
		{
			name: "single team passes",
			plan: SwarmPlan{Teams: []TeamObjective{team("team-1")}},
		},
		{
			name: "linear chain passes",
			plan: SwarmPlan{Teams: []TeamObjective{
				team("team-1"),
				team("team-2", "team-1"),
				team("team-3", "team-2"),
			}},
		},
		{
			name: "diamond passes",
			plan: SwarmPlan{Teams: []TeamObjective{
				team("a"),
				team("b", "a"),
				team("c", "a"),
				team("d", "b", "c"),
			}},
		},
		{
			name: "unknown dependency is rejected",
			plan: SwarmPlan{Teams: []TeamObjective{
				team("team-1", "team-9"),
			}},
			wantErr: "unknown team",
		},
		{
			name: "self dependency is rejected",
			plan: SwarmPlan{Teams: []TeamObjective{
				team("team-1", "team-1"),
			}},
			wantErr: "depends on itself",
		},
		{
			name: "two-node cycle is rejected",
			plan: SwarmPlan{Teams: []TeamObjective{
				team("a", "b"),
				team("b", "a"),
			}},
			wantErr: "cycle",
		},
		{
			name: "three-node cycle is rejected",
			plan: SwarmPlan{Teams: []TeamObjective{
				team("a", "c"),
				team("b", "a"),
				team("c", "b"),
			}},
			wantErr: "cycle",
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
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultSwarmConfig(t *testing.T) {
	cfg := DefaultSwarmConfig()

	if cfg.QueenModel == "" {
		t.Error("QueenModel should have a default")
	}
	if cfg.MaxParallelTeams != 3 {
		t.Errorf("MaxParallelTeams = %d, want 3", cfg.MaxParallelTeams)
	}
	if cfg.TotalCostLimitUSD != 25.0 {
		t.Errorf("TotalCostLimitUSD = %v, want 25.0", cfg.TotalCostLimitUSD)
	}
	if cfg.TotalTimeLimit != 30*time.Minute {
		t.Errorf("TotalTimeLimit = %v, want 30m", cfg.TotalTimeLimit)
	}
	if cfg.PerTeamCostLimitUSD != 5.0 {
		t.Errorf("PerTeamCostLimitUSD = %v, want 5.0", cfg.PerTeamCostLimitUSD)
	}
	if cfg.PerTeamTimeLimit != 5*time.Minute {
		t.Errorf("PerTeamTimeLimit = %v, want 5m", cfg.PerTeamTimeLimit)
	}
}

func TestInnerResult_Text(t *testing.T) {
	tests := []struct {
		name  string
		inner *InnerResult
		want  string
	}{
		{"nil result", nil, ""},
		{"empty result", &InnerResult{}, ""},
		{
			"hive mind uses synthesized output",
			&InnerResult{HiveMind: &HiveMindResult{SynthesizedOutput: "merged"}},
			"merged",
		},
		{
			"coordinator joins successful outputs",
			&InnerResult{Coordinator: &CoordinatorResult{Results: []TaskResult{
				{TaskID: "t1", Output: "one", Success: true},
				{TaskID: "t2", Output: "boom", Success: false},
				{TaskID: "t3", Output: "three", Success: true},
			}}},
			"one\n\nthree",
		},
		{
			"native uses raw content",
			&InnerResult{Native: &ModelOutput{Content: "native text"}},
			"native text",
		},
		{
			"single shot uses raw content",
			&InnerResult{SingleShot: &ModelOutput{Content: "quick text"}},
			"quick text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inner.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTeamStatus_Valid(t *testing.T) {
	valid := []TeamStatus{TeamStatusPending, TeamStatusRunning, TeamStatusCompleted, TeamStatusFailed, TeamStatusSkipped}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}
	if TeamStatus("done").Valid() {
		t.Error("unknown status should not be valid")
	}
}
