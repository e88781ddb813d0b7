package search

import (
	"sync/atomic"

	"github.com/guabee/golomb/golombv2/bitset"
)

// Frame is the search state at one backtracking depth. Frames live in a
// fixed per-worker array; nothing is heap-allocated in the hot loop.
type Frame struct {
	ReversedMarks bitset.BitSet128
	UsedDist      bitset.BitSet128
	MarksCount    int
	Length        int
	NextCandidate int
}

// PrefixJob is a serialized partial ruler, the unit of work handed to
// pool workers and partitioned across ranks.
type PrefixJob struct {
	ReversedMarks bitset.BitSet128
	UsedDist      bitset.BitSet128
	MarksCount    int
	Length        int
}

// bestSlot holds the shortest complete ruler one worker has seen. It is
// owned by that worker; the pool reads it only after the workers return.
type bestSlot struct {
	length   int
	numMarks int
	marks    [MaxMarks]int
}

// foldBound CAS-lowers bound to v. Lowering only; concurrent writers of
// smaller values win.
func foldBound(bound *int32, v int32) {
	for {
		cur := atomic.LoadInt32(bound)
		if v >= cur {
			return
		}
		if atomic.CompareAndSwapInt32(bound, cur, v) {
			return
		}
	}
}

// extend exhaustively explores every completion of the ruler seeded in
// stack[0], recording improvements in best and CAS-lowering bound.
// explored is bumped once per visited frame. onImprove, if set, fires
// after each strictly better complete ruler (marks are a fresh slice).
func extend(stack *[MaxMarks]Frame, n int, best *bestSlot, bound *int32, explored *int64, onImprove func(length int, marks []int)) {
	top := 0

	for top >= 0 {
		*explored++

		frame := &stack[top]

		current := int(atomic.LoadInt32(bound))

		// Any completion places r more marks with gaps of at least
		// 1, 2, ..., r, so rulers longer than that cannot beat current.
		r := n - frame.MarksCount
		if frame.Length+r*(r+1)/2 >= current {
			top--
			continue
		}

		// After placing a mark at pos, the r-1 marks left still need
		// (r-1)r/2 length, capping the useful candidate positions.
		minPos := frame.Length + 1
		maxPos := current - (r-1)*r/2 - 1

		pos := frame.NextCandidate
		if pos < minPos {
			pos = minPos
		}

		pushed := false

		for ; pos <= maxPos; pos++ {
			if pos >= int(atomic.LoadInt32(bound)) {
				break
			}

			delta := pos - frame.Length

			// One shift enumerates every difference a mark at pos would add.
			newDist := frame.ReversedMarks.ShiftLeft(delta)

			if newDist.And(frame.UsedDist).Any() {
				continue
			}

			if frame.MarksCount+1 == n {
				if pos < best.length {
					finalMarks := newDist
					finalMarks.Set(0)

					marks := finalMarks.Marks(pos)
					best.length = pos
					best.numMarks = len(marks)
					copy(best.marks[:], marks)

					// The slot write above must land before the bound
					// becomes visible to other workers.
					foldBound(bound, int32(pos))

					if onImprove != nil {
						onImprove(pos, marks)
					}
				}
				// keep scanning this frame for even shorter completions
			} else {
				frame.NextCandidate = pos + 1

				child := &stack[top+1]
				child.ReversedMarks = newDist
				child.ReversedMarks.Set(0)
				child.UsedDist = frame.UsedDist.Xor(newDist)
				child.MarksCount = frame.MarksCount + 1
				child.Length = pos
				child.NextCandidate = 0

				top++
				pushed = true
				break
			}
		}

		if !pushed {
			top--
		}
	}
}
