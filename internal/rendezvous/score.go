package rendezvous

import "math"

const (
	// fiftyThreeOnes keeps the bits that fit exactly in a float64 mantissa.
	fiftyThreeOnes = 1<<53 - 1
	twoPow53       = float64(1 << 53)
)

// Score returns the weighted rendezvous score of a (key, node) hash.
//
// The low 53 bits of h become a uniform u in [0, 1), and the score is
// weight / -ln(u). Taking the maximum score across nodes picks each node with
// probability proportional to its weight. u == 0 yields 0 (1 / +Inf), and u
// never reaches 1, so Score is defined for every input.
func Score(h uint64, weight int) float64 {
	u := float64(h&fiftyThreeOnes) / twoPow53
	return float64(weight) * (1 / -math.Log(u))
}
