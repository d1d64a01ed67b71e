package domain

import "testing"

func TestTierWeights(t *testing.T) {
	tests := []struct {
		name      string
		tierOrder []string
		unranked  string
		want      map[string]int
	}{
		{
			name:      "seven tier configuration",
			tierOrder: []string{"S", "A", "B", "C", "D", "F", "Unranked"},
			unranked:  "Unranked",
			want:      map[string]int{"S": 5, "A": 4, "B": 3, "C": 2, "D": 1, "F": 0, "Unranked": 0},
		},
		{
			name:      "deep orders floor at one",
			tierOrder: []string{"1", "2", "3", "4", "5", "6", "7", "8", "Unranked"},
			unranked:  "Unranked",
			want:      map[string]int{"1": 5, "2": 4, "3": 3, "4": 2, "5": 1, "6": 1, "7": 1, "8": 0, "Unranked": 0},
		},
		{
			name:      "single ranked tier collapses to zero",
			tierOrder: []string{"S", "Unranked"},
			unranked:  "Unranked",
			want:      map[string]int{"S": 0, "Unranked": 0},
		},
		{
			name:      "only unranked collapses to zero",
			tierOrder: []string{"Unranked"},
			unranked:  "Unranked",
			want:      map[string]int{"Unranked": 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TierWeights(tc.tierOrder, tc.unranked)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d weights, want %d", len(got), len(tc.want))
			}
			for tier, w := range tc.want {
				if got[tier] != w {
					t.Errorf("tier %s: got weight %d, want %d", tier, got[tier], w)
				}
			}
		})
	}
}

// Weights must never increase from a better tier to a worse one, and the
// unranked and lowest tiers always weigh zero.
func TestTierWeightsMonotonic(t *testing.T) {
	tierOrder := []string{"S", "A", "B", "C", "D", "E", "F", "G", "Unranked"}
	weights := TierWeights(tierOrder, "Unranked")

	prev := MaxTierWeight + 1
	for _, tier := range tierOrder[:len(tierOrder)-1] {
		if weights[tier] > prev {
			t.Fatalf("tier %s weight %d exceeds better tier weight %d", tier, weights[tier], prev)
		}
		prev = weights[tier]
	}
	if weights["Unranked"] != 0 {
		t.Fatalf("unranked tier has weight %d, want 0", weights["Unranked"])
	}
	if weights["G"] != 0 {
		t.Fatalf("lowest ranked tier has weight %d, want 0", weights["G"])
	}
}
