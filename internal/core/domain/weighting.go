package domain

// MaxTierWeight is the weight assigned to the top tier.
const MaxTierWeight = 5

// TierWeights derives the per-tier weight from the tier ordering. The
// unranked tier and the lowest ranked tier always weigh 0; the remaining
// tiers weigh max(MaxTierWeight-position, 1) from best to worst.
//
// With fewer than two non-unranked tiers there is no contributing tier at
// all and every weight collapses to 0.
func TierWeights(tierOrder []string, unrankedTier string) map[string]int {
	weights := make(map[string]int, len(tierOrder))
	ranked := make([]string, 0, len(tierOrder))
	for _, tier := range tierOrder {
		weights[tier] = 0
		if tier != unrankedTier {
			ranked = append(ranked, tier)
		}
	}
	if len(ranked) < 2 {
		return weights
	}

	// The last ranked tier is the non-contributing floor.
	for i, tier := range ranked[:len(ranked)-1] {
		w := MaxTierWeight - i
		if w < 1 {
			w = 1
		}
		weights[tier] = w
	}
	return weights
}
