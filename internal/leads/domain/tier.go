package domain

// Tier is the coarse priority bucket derived from the numeric score. It is
// used for queue ordering and display.
type Tier string

const (
	TierAPlus Tier = "A+"
	TierA     Tier = "A"
	TierBPlus Tier = "B+"
	TierB     Tier = "B"
	TierC     Tier = "C"
)

// Score thresholds for each tier. These are fixed business constants, not
// per-call configuration.
const (
	TierAPlusThreshold = 90
	TierAThreshold     = 70
	TierBPlusThreshold = 50
	TierBThreshold     = 30
)

// TierForScore maps a 0-100 score to its priority tier.
func TierForScore(score int) Tier {
	switch {
	case score >= TierAPlusThreshold:
		return TierAPlus
	case score >= TierAThreshold:
		return TierA
	case score >= TierBPlusThreshold:
		return TierBPlus
	case score >= TierBThreshold:
		return TierB
	default:
		return TierC
	}
}
