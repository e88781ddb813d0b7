package search

import (
	"encoding/binary"

	"github.com/guabee/golomb/golombv2/bitset"
	"github.com/zeebo/xxh3"
)

// GenOption tunes prefix generation.
type GenOption func(*genOptions)

type genOptions struct {
	mirrorBreak bool
}

// WithMirrorBreak restricts the second mark to the lower half of the
// admissible range, dropping one of each mirror pair. Off by default:
// mirrors can legitimately tie the optimum and the saving is modest at
// the prefix level.
func WithMirrorBreak() GenOption {
	return func(o *genOptions) {
		o.mirrorBreak = true
	}
}

// GeneratePrefixes enumerates every partial ruler of exactly depth marks
// whose completions could still fit within maxLen. The walk is fully
// deterministic: every rank running it with the same inputs produces the
// same jobs in the same order.
func GeneratePrefixes(n, maxLen, depth int, opts ...GenOption) []PrefixJob {
	var o genOptions
	for _, opt := range opts {
		opt(&o)
	}

	limit := maxLen + 1
	mirrorHalf := 0
	if o.mirrorBreak {
		mirrorHalf = maxLen / 2
	}

	var root bitset.BitSet128
	root.Set(0)

	jobs := make([]PrefixJob, 0, 1024)
	generate(root, bitset.BitSet128{}, 1, 0, depth, n, limit, mirrorHalf, &jobs)
	return jobs
}

func generate(reversed, used bitset.BitSet128, marksCount, length, depth, n, limit, mirrorHalf int, out *[]PrefixJob) {
	if marksCount == depth {
		*out = append(*out, PrefixJob{
			ReversedMarks: reversed,
			UsedDist:      used,
			MarksCount:    marksCount,
			Length:        length,
		})
		return
	}

	r := n - marksCount
	if length+r*(r+1)/2 >= limit {
		return
	}

	minPos := length + 1
	maxPos := limit - (r-1)*r/2 - 1
	if mirrorHalf > 0 && marksCount == 1 && maxPos > mirrorHalf {
		// the mirror of any ruler with m1 > L/2 has m1 <= L/2
		maxPos = mirrorHalf
	}

	for pos := minPos; pos <= maxPos; pos++ {
		delta := pos - length

		newDist := reversed.ShiftLeft(delta)
		if newDist.And(used).Any() {
			continue
		}

		newReversed := newDist
		newReversed.Set(0)

		generate(newReversed, used.Xor(newDist), marksCount+1, pos, depth, n, limit, mirrorHalf, out)
	}
}

// PrefixDepth picks the prefix depth for order n and a total worker
// count: deep enough to keep every worker busy, shallow enough that
// generation stays a negligible fraction of the run.
func PrefixDepth(n, workers int) int {
	var d int
	switch {
	case n <= 6:
		d = 2
	case n <= 10:
		d = 3
	case n <= 12:
		d = 4
	default:
		d = 5
	}
	if workers > 64 && d < 6 {
		d = 6
	}

	if d > n-3 {
		d = n - 3
	}
	if d < 2 {
		d = 2
	}
	// tiny orders: a prefix must leave the kernel at least one mark
	if d >= n {
		d = n - 1
	}
	return d
}

// DigestPrefixes hashes a prefix list. Ranks compare digests before
// partitioning so a diverging enumeration is caught instead of silently
// dropping subtrees.
func DigestPrefixes(jobs []PrefixJob) uint64 {
	buf := make([]byte, 0, len(jobs)*40)
	var tmp [40]byte
	for _, j := range jobs {
		binary.LittleEndian.PutUint64(tmp[0:], j.ReversedMarks.Lo)
		binary.LittleEndian.PutUint64(tmp[8:], j.ReversedMarks.Hi)
		binary.LittleEndian.PutUint64(tmp[16:], j.UsedDist.Lo)
		binary.LittleEndian.PutUint64(tmp[24:], j.UsedDist.Hi)
		binary.LittleEndian.PutUint32(tmp[32:], uint32(j.MarksCount))
		binary.LittleEndian.PutUint32(tmp[36:], uint32(j.Length))
		buf = append(buf, tmp[:]...)
	}
	return xxh3.Hash(buf)
}
