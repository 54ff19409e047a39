package mutation

import (
	"math/rand"

	"fulfillment-mutation-lab/internal/domain"
)

// Pick chooses one candidate uniformly with the given seeded source.
// Returns false when the set is empty.
func Pick(rng *rand.Rand, candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

// PickWeighted chooses one candidate with probability proportional to its
// mode's weight. Modes absent from the weight map get weight 1; modes with
// non-positive weight are never picked. Returns false when the set is empty
// or every candidate is weighted out.
func PickWeighted(rng *rand.Rand, candidates []Candidate, weights map[domain.FailureMode]float64) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	total := 0.0
	ws := make([]float64, len(candidates))
	for i, c := range candidates {
		w, ok := weights[c.Mode]
		if !ok {
			w = 1
		}
		if w < 0 {
			w = 0
		}
		ws[i] = w
		total += w
	}
	if total == 0 {
		return Candidate{}, false
	}

	pick := rng.Float64() * total
	for i, c := range candidates {
		pick -= ws[i]
		if pick < 0 {
			return c, true
		}
	}
	// Float accumulation can land exactly on total.
	return candidates[len(candidates)-1], true
}
