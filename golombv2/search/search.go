package search

import (
	"github.com/guabee/golomb/golombv2/log"
	"github.com/guabee/golomb/util"
)

// Option tunes a single-process search.
type Option func(*options)

type options struct {
	initial     Solution
	events      *util.PubSub
	prefixDepth int
	mirrorBreak bool
}

// WithInitialSolution seeds the bound (and the reported best) with a
// known feasible ruler, e.g. a greedy warm start.
func WithInitialSolution(sol Solution) Option {
	return func(o *options) {
		o.initial = sol
	}
}

// WithEvents publishes bound improvements on ps under TopicBound.
func WithEvents(ps *util.PubSub) Option {
	return func(o *options) {
		o.events = ps
	}
}

// WithPrefixDepth overrides the depth tier.
func WithPrefixDepth(depth int) Option {
	return func(o *options) {
		o.prefixDepth = depth
	}
}

// WithSearchMirrorBreak enables mirror symmetry breaking in the prefix
// generator.
func WithSearchMirrorBreak() Option {
	return func(o *options) {
		o.mirrorBreak = true
	}
}

// Search finds the shortest Golomb ruler of order n with length at most
// maxLen using one process and the given worker count. Returns the empty
// Solution when no such ruler exists, together with the number of search
// states visited.
func Search(n, maxLen, threads int, opts ...Option) (Solution, int64, error) {
	if err := ValidateArgs(n, maxLen, threads); err != nil {
		return Solution{}, 0, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.NewLoggerEntry("search")

	limit := maxLen + 1
	bound := limit
	if !o.initial.Empty() && o.initial.Length < bound {
		bound = o.initial.Length
	}

	depth := o.prefixDepth
	if depth <= 0 {
		depth = PrefixDepth(n, threads)
	}

	var genOpts []GenOption
	if o.mirrorBreak {
		genOpts = append(genOpts, WithMirrorBreak())
	}
	jobs := GeneratePrefixes(n, maxLen, depth, genOpts...)
	logger.Debugf("n=%d maxLen=%d depth=%d prefixes=%d", n, maxLen, depth, len(jobs))

	pool := NewPool(n, threads, bound, o.events)
	pool.RunRange(jobs, 0, len(jobs))

	best := pool.Best()
	if best.Empty() && !o.initial.Empty() && o.initial.Length <= maxLen {
		best = o.initial
	}
	return best, pool.Explored(), nil
}
