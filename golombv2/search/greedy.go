package search

import (
	"github.com/guabee/golomb/golombv2/bitset"
)

// Greedy places each mark at the first conflict-free position. The
// result is far from optimal but cheap, and seeding the bound with it
// prunes the early search. Returns false when n marks do not fit in
// maxLen this way.
func Greedy(n, maxLen int) (Solution, bool) {
	var reversed, used bitset.BitSet128
	reversed.Set(0)

	marks := make([]int, 1, n)
	length := 0

	for pos := 1; len(marks) < n && pos <= maxLen; pos++ {
		delta := pos - length

		newDist := reversed.ShiftLeft(delta)
		if newDist.And(used).Any() {
			continue
		}

		reversed = newDist
		reversed.Set(0)
		used = used.Xor(newDist)

		marks = append(marks, pos)
		length = pos
	}

	if len(marks) != n {
		return Solution{}, false
	}
	return Solution{Length: length, Marks: marks}, true
}
