// Package memory implements the collective memory shared across swarm
// runs: a sqlite-backed store of categorized learnings with tag filters,
// relevance ordering, and access bookkeeping.
package memory

import "time"

// Category classifies a memory entry.
type Category string

const (
	// CategorySuccessPattern records an approach that worked.
	CategorySuccessPattern Category = "success_pattern"
	// CategoryFailurePattern records an approach to avoid.
	CategoryFailurePattern Category = "failure_pattern"
	// CategoryModelInsight records an observation about model behavior.
	CategoryModelInsight Category = "model_insight"
	// CategoryConflictResolution records how a disagreement was settled.
	CategoryConflictResolution Category = "conflict_resolution"
	// CategoryCodePattern records a reusable code structure.
	CategoryCodePattern Category = "code_pattern"
	// CategoryUserPreference records a stated preference of the user.
	CategoryUserPreference Category = "user_preference"
	// CategoryGeneral is the fallback for everything else.
	CategoryGeneral Category = "general"
)

// ParseCategory parses a category name. Unknown names map to General.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategorySuccessPattern, CategoryFailurePattern, CategoryModelInsight,
		CategoryConflictResolution, CategoryCodePattern, CategoryUserPreference,
		CategoryGeneral:
		return Category(s)
	default:
		return CategoryGeneral
	}
}

// Entry is one stored learning.
type Entry struct {
	// ID is the sqlite row id.
	ID int64 `json:"id"`
	// Category classifies the entry.
	Category Category `json:"category"`
	// Content is the learning text.
	Content string `json:"content"`
	// Tags are free-form labels used for filtered recall.
	Tags []string `json:"tags"`
	// SourceRunID links the entry to the swarm run that produced it.
	SourceRunID string `json:"source_run_id,omitempty"`
	// SourceTeamID links the entry to the team that produced it.
	SourceTeamID string `json:"source_team_id,omitempty"`
	// RelevanceScore orders recall results. Starts at 1.0, grows on
	// access, decays over time.
	RelevanceScore float64 `json:"relevance_score"`
	// CreatedAt is when the entry was stored.
	CreatedAt time.Time `json:"created_at"`
	// LastAccessed is when the entry was last touched.
	LastAccessed time.Time `json:"last_accessed"`
	// AccessCount counts how often the entry was touched.
	AccessCount int64 `json:"access_count"`
}

// Stats summarizes the store contents.
type Stats struct {
	// TotalEntries is the number of stored entries.
	TotalEntries int64 `json:"total_entries"`
	// ByCategory maps each category to its entry count.
	ByCategory map[Category]int64 `json:"by_category"`
	// AvgRelevance is the mean relevance score, zero for an empty store.
	AvgRelevance float64 `json:"avg_relevance"`
}
