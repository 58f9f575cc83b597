package ai

import (
	"math"
	"testing"
)

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}

	tests := []struct {
		name  string
		model string
		usage TokenUsage
		want  float64
	}{
		{"opus family", "claude-opus-4-5-20251101", usage, 90.0},
		{"sonnet family", "claude-sonnet-4-5-20250929", usage, 18.0},
		{"haiku family", "claude-haiku-4-5-20251001", usage, 4.80},
		{"gpt-4o matches before gpt-4", "gpt-4o-mini", usage, 12.50},
		{"gpt-4 family", "gpt-4-turbo", usage, 40.0},
		{"gpt-3.5 family", "gpt-3.5-turbo", usage, 2.0},
		{"unknown model is free", "llama3", usage, 0.0},
		{"empty model is free", "", usage, 0.0},
		{"case insensitive", "Claude-SONNET-4-5", usage, 18.0},
		{
			"fractional usage",
			"claude-sonnet-4-5-20250929",
			TokenUsage{InputTokens: 500, OutputTokens: 200},
			500.0/1_000_000*3.0 + 200.0/1_000_000*15.0,
		},
		{"zero usage costs nothing", "claude-opus-4-5", TokenUsage{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateCost(tt.model, tt.usage)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimateCost(%q, %+v) = %v, want %v", tt.model, tt.usage, got, tt.want)
			}
		})
	}
}

func TestTokenUsage_Total(t *testing.T) {
	u := TokenUsage{InputTokens: 120, OutputTokens: 80}
	if got := u.Total(); got != 200 {
		t.Errorf("Total() = %d, want 200", got)
	}
}

func TestTokenTracker(t *testing.T) {
	tr := NewTokenTracker()

	tr.Add(100, 50)
	tr.Add(200, 75)

	in, out := tr.Total()
	if in != 300 || out != 125 {
		t.Errorf("Total() = (%d, %d), want (300, 125)", in, out)
	}
	if tr.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", tr.Calls())
	}

	tr.Reset()
	in, out = tr.Total()
	if in != 0 || out != 0 || tr.Calls() != 0 {
		t.Error("Reset() should clear all counters")
	}
}

func TestDefaultModelForTier(t *testing.T) {
	if got := DefaultModelForTier("premium"); got != "claude-sonnet-4-5-20250929" {
		t.Errorf("premium tier = %q", got)
	}
	if got := DefaultModelForTier("mid"); got != "claude-haiku-4-5-20251001" {
		t.Errorf("mid tier = %q", got)
	}
	if got := DefaultModelForTier("budget"); got != "claude-haiku-4-5-20251001" {
		t.Errorf("budget tier = %q", got)
	}
	if got := DefaultModelForTier("free"); got != "llama3" {
		t.Errorf("free tier = %q", got)
	}
}
