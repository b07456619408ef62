package services

import "math"

// cosine returns the cosine similarity of a and b, or 0 for mismatched or zero vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// maximalMarginalRelevance selects up to k candidate indexes, trading
// similarity to query (weight lambda) against similarity to already
// selected candidates (weight 1-lambda). Ties keep candidate order.
func maximalMarginalRelevance(query []float32, candidates [][]float32, k int, lambda float64) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	k = min(k, len(candidates))

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = cosine(query, c)
	}

	selected := make([]int, 0, k)
	chosen := make([]bool, len(candidates))
	// maxSim[i] is the highest similarity of candidate i to any selected candidate.
	maxSim := make([]float64, len(candidates))
	for i := range maxSim {
		maxSim[i] = -1
	}

	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i := range candidates {
			if chosen[i] {
				continue
			}
			score := lambda * relevance[i]
			if len(selected) > 0 {
				score -= (1 - lambda) * maxSim[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		chosen[best] = true
		selected = append(selected, best)
		for i := range candidates {
			if !chosen[i] {
				maxSim[i] = math.Max(maxSim[i], cosine(candidates[i], candidates[best]))
			}
		}
	}
	return selected
}
