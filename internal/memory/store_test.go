package memory

import (
	"math"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RememberAndRecall(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Remember(CategorySuccessPattern, "Team 'Research' completed successfully", []string{"swarm", "success"}, "run-1", "team-1")
	if err != nil {
		t.Fatalf("Remember() error = %v", err)
	}
	if id <= 0 {
		t.Errorf("Remember() id = %d, want positive", id)
	}

	entries, err := s.Recall("Research", "", nil, 10)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Recall() returned %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.Category != CategorySuccessPattern {
		t.Errorf("Category = %q, want %q", e.Category, CategorySuccessPattern)
	}
	if e.SourceRunID != "run-1" || e.SourceTeamID != "team-1" {
		t.Errorf("source ids = (%q, %q), want (run-1, team-1)", e.SourceRunID, e.SourceTeamID)
	}
	if len(e.Tags) != 2 || e.Tags[0] != "swarm" {
		t.Errorf("Tags = %v, want [swarm success]", e.Tags)
	}
	if e.RelevanceScore != 1.0 {
		t.Errorf("RelevanceScore = %v, want 1.0", e.RelevanceScore)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestStore_RecallFilters(t *testing.T) {
	s := openTestStore(t)

	mustRemember := func(cat Category, content string, tags []string) {
		t.Helper()
		if _, err := s.Remember(cat, content, tags, "", ""); err != nil {
			t.Fatalf("Remember() error = %v", err)
		}
	}

	mustRemember(CategorySuccessPattern, "caching worked well", []string{"perf"})
	mustRemember(CategoryFailurePattern, "caching caused stale reads", []string{"perf", "bug"})
	mustRemember(CategoryModelInsight, "haiku is fast for summaries", []string{"models"})

	t.Run("category filter", func(t *testing.T) {
		entries, err := s.Recall("caching", CategoryFailurePattern, nil, 10)
		if err != nil {
			t.Fatalf("Recall() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Category != CategoryFailurePattern {
			t.Errorf("got %d entries, want 1 failure pattern", len(entries))
		}
	})

	t.Run("tag filter", func(t *testing.T) {
		entries, err := s.Recall("caching", "", []string{"bug"}, 10)
		if err != nil {
			t.Fatalf("Recall() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("got %d entries, want 1", len(entries))
		}
	})

	t.Run("limit", func(t *testing.T) {
		entries, err := s.Recall("caching", "", nil, 1)
		if err != nil {
			t.Fatalf("Recall() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("got %d entries, want 1", len(entries))
		}
	})

	t.Run("no match", func(t *testing.T) {
		entries, err := s.Recall("kubernetes", "", nil, 10)
		if err != nil {
			t.Fatalf("Recall() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("got %d entries, want 0", len(entries))
		}
	})
}

func TestStore_TouchBumpsRelevance(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Remember(CategoryGeneral, "remember me", nil, "", "")
	if err != nil {
		t.Fatalf("Remember() error = %v", err)
	}

	if err := s.Touch(id); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	entries, err := s.Recall("remember me", "", nil, 1)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", entries[0].AccessCount)
	}
	if math.Abs(entries[0].RelevanceScore-1.01) > 1e-9 {
		t.Errorf("RelevanceScore = %v, want 1.01", entries[0].RelevanceScore)
	}
}

func TestStore_DecayAndPrune(t *testing.T) {
	s := openTestStore(t)

	for _, content := range []string{"entry one", "entry two", "entry three"} {
		if _, err := s.Remember(CategoryGeneral, content, nil, "", ""); err != nil {
			t.Fatalf("Remember() error = %v", err)
		}
	}

	if err := s.DecayScores(0.5); err != nil {
		t.Fatalf("DecayScores() error = %v", err)
	}

	pruned, err := s.Prune(0.6)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if pruned != 3 {
		t.Errorf("Prune() = %d, want 3", pruned)
	}

	n, err := s.EntryCount()
	if err != nil {
		t.Fatalf("EntryCount() error = %v", err)
	}
	if n != 0 {
		t.Errorf("EntryCount() = %d, want 0", n)
	}
}

func TestStore_Stats(t *testing.T) {
	s := openTestStore(t)

	t.Run("empty store", func(t *testing.T) {
		stats, err := s.Stats()
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalEntries != 0 {
			t.Errorf("TotalEntries = %d, want 0", stats.TotalEntries)
		}
		if stats.AvgRelevance != 0 {
			t.Errorf("AvgRelevance = %v, want 0", stats.AvgRelevance)
		}
	})

	t.Run("populated store", func(t *testing.T) {
		s.Remember(CategorySuccessPattern, "a", nil, "", "")
		s.Remember(CategorySuccessPattern, "b", nil, "", "")
		s.Remember(CategoryModelInsight, "c", nil, "", "")

		stats, err := s.Stats()
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalEntries != 3 {
			t.Errorf("TotalEntries = %d, want 3", stats.TotalEntries)
		}
		if stats.ByCategory[CategorySuccessPattern] != 2 {
			t.Errorf("success patterns = %d, want 2", stats.ByCategory[CategorySuccessPattern])
		}
		if math.Abs(stats.AvgRelevance-1.0) > 1e-9 {
			t.Errorf("AvgRelevance = %v, want 1.0", stats.AvgRelevance)
		}
	})
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
	}{
		{"success_pattern", CategorySuccessPattern},
		{"failure_pattern", CategoryFailurePattern},
		{"model_insight", CategoryModelInsight},
		{"conflict_resolution", CategoryConflictResolution},
		{"code_pattern", CategoryCodePattern},
		{"user_preference", CategoryUserPreference},
		{"general", CategoryGeneral},
		{"nonsense", CategoryGeneral},
		{"", CategoryGeneral},
	}

	for _, tt := range tests {
		if got := ParseCategory(tt.input); got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
