package search

import (
	"github.com/pkg/errors"
)

const (
	// MaxMarks is the largest ruler order the engine searches for.
	MaxMarks = 24
	// MaxLen is the largest ruler length representable by the 128-bit
	// distance sets (bit 0 is unused for distances).
	MaxLen = 127
)

// Solution is a complete ruler: ascending marks starting at 0, with
// Length == Marks[len-1]. The zero value means "no ruler found".
type Solution struct {
	Length int   `json:"length"`
	Marks  []int `json:"marks"`
}

func (s Solution) Empty() bool {
	return len(s.Marks) == 0
}

// Validate reports whether marks form a Golomb ruler: ascending from 0
// with all pairwise differences distinct.
func Validate(marks []int) bool {
	if len(marks) == 0 || marks[0] != 0 {
		return false
	}
	seen := make(map[int]bool)
	for i := 0; i < len(marks); i++ {
		if i > 0 && marks[i] <= marks[i-1] {
			return false
		}
		for j := 0; j < i; j++ {
			d := marks[i] - marks[j]
			if seen[d] {
				return false
			}
			seen[d] = true
		}
	}
	return true
}

// ValidateArgs checks the search inputs against the engine's hard range.
func ValidateArgs(n, maxLen, threads int) error {
	if n < 2 || n > MaxMarks {
		return errors.Errorf("order must be in [2, %d], got %d", MaxMarks, n)
	}
	if maxLen < 0 || maxLen > MaxLen {
		return errors.Errorf("max length must be in [0, %d], got %d", MaxLen, maxLen)
	}
	if threads < 1 {
		return errors.Errorf("thread count must be positive, got %d", threads)
	}
	return nil
}

// knownOptimal maps a ruler order to the published optimal length, for
// orders whose optimum fits the 128-bit representation. Used to
// bootstrap the initial bound when the caller asks for it and to label
// the CLI's result as optimal or not.
var knownOptimal = map[int]int{
	2:  1,
	3:  3,
	4:  6,
	5:  11,
	6:  17,
	7:  25,
	8:  34,
	9:  44,
	10: 55,
	11: 72,
	12: 85,
	13: 106,
	14: 127,
}

// KnownOptimal returns the published optimal length for order n, or 0
// when none is known within the supported range.
func KnownOptimal(n int) int {
	return knownOptimal[n]
}
