package queen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/apiarylabs/apiary/internal/ai"
	"github.com/apiarylabs/apiary/internal/memory"
	"github.com/apiarylabs/apiary/pkg/models"
)

// mockExecutor records requests and returns canned responses.
type mockExecutor struct {
	mu       sync.Mutex
	requests []*ai.ChatRequest
	respond  func(req *ai.ChatRequest) (*ai.ChatResponse, error)
}

func (m *mockExecutor) Execute(_ context.Context, req *ai.ChatRequest) (*ai.ChatResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.respond != nil {
		return m.respond(req)
	}
	return &ai.ChatResponse{
		Content: "ok",
		Model:   req.Model,
		Usage:   ai.TokenUsage{InputTokens: 100, OutputTokens: 100},
	}, nil
}

func (m *mockExecutor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// fakeMemory is an in-process MemoryStore for tests.
type fakeMemory struct {
	mu      sync.Mutex
	nextID  int64
	entries []memory.Entry
	failAll bool
}

func (f *fakeMemory) Remember(category memory.Category, content string, tags []string, runID, teamID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, errors.New("store unavailable")
	}
	f.nextID++
	f.entries = append(f.entries, memory.Entry{
		ID:           f.nextID,
		Category:     category,
		Content:      content,
		Tags:         tags,
		SourceRunID:  runID,
		SourceTeamID: teamID,
	})
	return f.nextID, nil
}

func (f *fakeMemory) Recall(query string, category memory.Category, _ []string, limit int) ([]memory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []memory.Entry
	for _, e := range f.entries {
		if category != "" && e.Category != category {
			continue
		}
		if !strings.Contains(e.Content, query) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMemory) byCategory(category memory.Category) []memory.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []memory.Entry
	for _, e := range f.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

func TestParsePlanResponse(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		raw := `[{"id":"team-1","name":"One","description":"d","dependencies":[],"orchestration_mode":"single_shot"}]`
		plan, err := parsePlanResponse(raw)
		if err != nil {
			t.Fatalf("parsePlanResponse() error = %v", err)
		}
		if len(plan.Teams) != 1 || plan.Teams[0].ID != "team-1" {
			t.Errorf("plan = %+v", plan)
		}
	})

	t.Run("prose around the array is tolerated", func(t *testing.T) {
		raw := "Here is the plan you asked for:\n\n" +
			`[{"id":"team-1","name":"One","description":"d","dependencies":[],"orchestration_mode":"hivemind"}]` +
			"\n\nLet me know if you need changes."
		plan, err := parsePlanResponse(raw)
		if err != nil {
			t.Fatalf("parsePlanResponse() error = %v", err)
		}
		if plan.Teams[0].OrchestrationMode != models.ModeHiveMind {
			t.Errorf("mode = %q, want hive_mind", plan.Teams[0].OrchestrationMode)
		}
	})

	t.Run("no array found", func(t *testing.T) {
		_, err := parsePlanResponse("I cannot produce a plan for that goal.")
		if !errors.Is(err, ErrNoArrayFound) {
			t.Errorf("error = %v, want ErrNoArrayFound", err)
		}
	})

	t.Run("no closing bracket", func(t *testing.T) {
		_, err := parsePlanResponse(`[{"id":"team-1"`)
		if !errors.Is(err, ErrNoClosingBracket) {
			t.Errorf("error = %v, want ErrNoClosingBracket", err)
		}
	})

	t.Run("brackets in the wrong order", func(t *testing.T) {
		_, err := parsePlanResponse(`] nonsense [`)
		if !errors.Is(err, ErrMalformedArray) {
			t.Errorf("error = %v, want ErrMalformedArray", err)
		}
	})

	t.Run("empty array", func(t *testing.T) {
		_, err := parsePlanResponse("[]")
		if !errors.Is(err, ErrEmptyPlan) {
			t.Errorf("error = %v, want ErrEmptyPlan", err)
		}
	})

	t.Run("schema mismatch", func(t *testing.T) {
		_, err := parsePlanResponse(`["just", "strings"]`)
		if err == nil {
			t.Error("parsePlanResponse() should fail on a non-object array")
		}
	})
}

func TestQueen_Plan(t *testing.T) {
	planJSON := `[
		{"id":"team-1","name":"Research","description":"dig","dependencies":[],"orchestration_mode":"single_shot"},
		{"id":"team-2","name":"Build","description":"make","dependencies":["team-1"],"orchestration_mode":"coordinator"}
	]`

	t.Run("happy path", func(t *testing.T) {
		exec := &mockExecutor{respond: func(req *ai.ChatRequest) (*ai.ChatResponse, error) {
			return &ai.ChatResponse{Content: planJSON, Model: req.Model,
				Usage: ai.TokenUsage{InputTokens: 1000, OutputTokens: 500}}, nil
		}}
		q := New(exec, models.DefaultSwarmConfig())

		plan, err := q.Plan(context.Background(), "build a cache layer")
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if len(plan.Teams) != 2 {
			t.Errorf("got %d teams, want 2", len(plan.Teams))
		}
		if q.TotalCost() <= 0 {
			t.Error("planning call cost should be charged to the ledger")
		}

		req := exec.requests[0]
		if req.Model != q.cfg.QueenModel {
			t.Errorf("planning model = %q, want queen model", req.Model)
		}
		if !strings.Contains(req.Messages[0].Content, "build a cache layer") {
			t.Error("prompt should contain the goal")
		}
		if !strings.Contains(req.SystemPrompt, "swarm orchestration planner") {
			t.Errorf("system prompt = %q", req.SystemPrompt)
		}
	})

	t.Run("cost charged even when the response is unusable", func(t *testing.T) {
		exec := &mockExecutor{respond: func(req *ai.ChatRequest) (*ai.ChatResponse, error) {
			return &ai.ChatResponse{Content: "no plan today", Model: req.Model,
				Usage: ai.TokenUsage{InputTokens: 1000, OutputTokens: 500}}, nil
		}}
		q := New(exec, models.DefaultSwarmConfig())

		if _, err := q.Plan(context.Background(), "anything"); !errors.Is(err, ErrNoArrayFound) {
			t.Fatalf("Plan() error = %v, want ErrNoArrayFound", err)
		}
		if q.TotalCost() <= 0 {
			t.Error("unusable planning response should still cost money")
		}
	})

	t.Run("invalid dependency graph rejected", func(t *testing.T) {
		exec := &mockExecutor{respond: func(req *ai.ChatRequest) (*ai.ChatResponse, error) {
			return &ai.ChatResponse{
				Content: `[{"id":"team-1","name":"One","description":"d","dependencies":["ghost"],"orchestration_mode":"single_shot"}]`,
				Model:   req.Model,
			}, nil
		}}
		q := New(exec, models.DefaultSwarmConfig())

		_, err := q.Plan(context.Background(), "anything")
		if err == nil || !strings.Contains(err.Error(), "unknown team") {
			t.Errorf("Plan() error = %v, want a dangling-dependency error", err)
		}
	})

	t.Run("memory context flows into the prompt", func(t *testing.T) {
		mem := &fakeMemory{}
		mem.Remember(memory.CategorySuccessPattern, "caching worked before", nil, "", "")

		exec := &mockExecutor{respond: func(req *ai.ChatRequest) (*ai.ChatResponse, error) {
			return &ai.ChatResponse{Content: planJSON, Model: req.Model}, nil
		}}
		q := New(exec, models.DefaultSwarmConfig()).WithMemory(mem)

		if _, err := q.Plan(context.Background(), "improve caching speed"); err != nil {
			t.Fatalf("Plan() error = %v", err)
		}

		prompt := exec.requests[0].Messages[0].Content
		if !strings.Contains(prompt, "Relevant past learnings:") {
			t.Error("prompt should carry the memory context header")
		}
		if !strings.Contains(prompt, "- Success pattern: caching worked before") {
			t.Errorf("prompt missing recalled entry:\n%s", prompt)
		}
	})
}

func TestQueen_GatherMemoryContext(t *testing.T) {
	t.Run("nil store yields empty context", func(t *testing.T) {
		q := New(&mockExecutor{}, models.DefaultSwarmConfig())
		if got := q.gatherMemoryContext("anything at all"); got != "" {
			t.Errorf("gatherMemoryContext() = %q, want empty", got)
		}
	})

	t.Run("short words are not query terms", func(t *testing.T) {
		mem := &fakeMemory{}
		mem.Remember(memory.CategorySuccessPattern, "abc is a pattern", nil, "", "")

		q := New(&mockExecutor{}, models.DefaultSwarmConfig()).WithMemory(mem)
		// Every goal word is shorter than 4 characters.
		if got := q.gatherMemoryContext("fix it a bit"); got != "" {
			t.Errorf("gatherMemoryContext() = %q, want empty", got)
		}
	})

	t.Run("duplicate entries across terms appear once", func(t *testing.T) {
		mem := &fakeMemory{}
		mem.Remember(memory.CategoryFailurePattern, "database retries caused thundering herds", nil, "", "")

		q := New(&mockExecutor{}, models.DefaultSwarmConfig()).WithMemory(mem)
		got := q.gatherMemoryContext("database retries tuning")

		if count := strings.Count(got, "thundering herds"); count != 1 {
			t.Errorf("entry appears %d times, want 1:\n%s", count, got)
		}
		if !strings.Contains(got, "- Failure to avoid: ") {
			t.Errorf("missing failure prefix:\n%s", got)
		}
	})
}
