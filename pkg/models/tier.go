package models

// ModelTier represents the capability/cost class of a model.
type ModelTier string

const (
	// TierPremium is for the hardest reasoning work (architecture, security).
	TierPremium ModelTier = "premium"
	// TierMid is for standard implementation and review work.
	TierMid ModelTier = "mid"
	// TierBudget is for lightweight summarization and verification.
	TierBudget ModelTier = "budget"
	// TierFree is for local models with no per-token cost.
	TierFree ModelTier = "free"
)

// Valid returns true if the tier is a known value.
func (t ModelTier) Valid() bool {
	switch t {
	case TierPremium, TierMid, TierBudget, TierFree:
		return true
	default:
		return false
	}
}
