package cluster

import (
	"time"

	"github.com/guabee/golomb/golombv2/log"
	"github.com/guabee/golomb/golombv2/search"
	"github.com/guabee/golomb/util"
	"github.com/pkg/errors"
)

// SyncIntervalDefault is the number of prefixes each rank processes
// between two bound-synchronization collectives. Smaller propagates the
// bound sooner; larger amortizes collective latency.
const SyncIntervalDefault = 64

// Config drives one distributed search.
type Config struct {
	N      int
	MaxLen int
	// Threads is the local worker count. The automatic prefix depth is
	// computed from Size*Threads, so ranks whose Threads values lead to
	// different depths fail the prefix digest check unless PrefixDepth
	// is set.
	Threads int
	// SyncInterval is the round size S (0 = SyncIntervalDefault).
	SyncInterval int
	// PrefixDepth overrides the depth tier (0 = auto).
	PrefixDepth int
	MirrorBreak bool
	// Greedy seeds the bound with a first-fit warm start.
	Greedy bool
	// Initial, when non-empty, is a known feasible ruler (e.g. from the
	// archive) that seeds the bound and stands as the fallback answer.
	Initial search.Solution
	// Events receives bound improvements (search.TopicBound).
	Events *util.PubSub
	// ReportInterval > 0 logs progress on that cadence while running.
	ReportInterval time.Duration
}

// Result is the reduced outcome, identical on every rank.
type Result struct {
	Solution search.Solution
	// Explored is the total number of states visited across all ranks.
	Explored int64
	// Prefixes is the size of the (identical) prefix list.
	Prefixes int
}

// Coordinator runs the search over a collective: identical prefix
// generation on every rank, static modulo partitioning, rounds of
// SyncInterval jobs folded together with an all-reduce-min on the
// bound, and a final reduction that elects the lowest-ranked winner.
type Coordinator struct {
	coll   Collective
	logger *log.Entry
}

func NewCoordinator(coll Collective) *Coordinator {
	return &Coordinator{
		coll:   coll,
		logger: log.NewLoggerEntry("coordinator").WithField("rank", coll.Rank()),
	}
}

func (c *Coordinator) Run(cfg Config) (Result, error) {
	if err := search.ValidateArgs(cfg.N, cfg.MaxLen, cfg.Threads); err != nil {
		return Result{}, err
	}

	n := cfg.N
	rank, size := c.coll.Rank(), c.coll.Size()
	syncInterval := cfg.SyncInterval
	if syncInterval <= 0 {
		syncInterval = SyncIntervalDefault
	}

	limit := cfg.MaxLen + 1
	bound := limit

	warm := cfg.Initial
	if !warm.Empty() && warm.Length > cfg.MaxLen {
		warm = search.Solution{}
	}
	if !warm.Empty() && warm.Length < bound {
		bound = warm.Length
	}
	if cfg.Greedy {
		if sol, ok := search.Greedy(n, cfg.MaxLen); ok && (warm.Empty() || sol.Length < warm.Length) {
			warm = sol
			bound = sol.Length
			c.logger.Infof("greedy warm start: length=%d", sol.Length)
		}
	}
	// every rank computed the same warm start, but fold anyway so a
	// future rank-dependent seed cannot skew the bounds
	folded, err := c.coll.AllReduceMin(int64(bound))
	if err != nil {
		return Result{}, errors.Wrap(err, "initial bound all-reduce")
	}
	bound = int(folded)

	depth := cfg.PrefixDepth
	if depth <= 0 {
		depth = search.PrefixDepth(n, size*cfg.Threads)
	}
	var genOpts []search.GenOption
	if cfg.MirrorBreak {
		genOpts = append(genOpts, search.WithMirrorBreak())
	}
	jobs := search.GeneratePrefixes(n, cfg.MaxLen, depth, genOpts...)
	c.logger.Infof("generated %d prefixes at depth %d", len(jobs), depth)

	if err := c.checkDigest(jobs); err != nil {
		return Result{}, err
	}

	myJobs := make([]search.PrefixJob, 0, len(jobs)/size+1)
	for i := rank; i < len(jobs); i += size {
		myJobs = append(myJobs, jobs[i])
	}

	// a rank that runs out of jobs early must keep serving collectives,
	// so the round count is driven by the busiest rank
	maxJobs, err := c.coll.AllReduceMax(int64(len(myJobs)))
	if err != nil {
		return Result{}, errors.Wrap(err, "job count all-reduce")
	}
	rounds := int((maxJobs + int64(syncInterval) - 1) / int64(syncInterval))

	pool := search.NewPool(n, cfg.Threads, bound, cfg.Events)

	if cfg.ReportInterval > 0 {
		reporter := search.NewReporter(cfg.ReportInterval, func() (int, int64) {
			return pool.Bound(), pool.Explored()
		})
		reporter.Start()
		defer reporter.Stop()
	}

	for round := 0; round < rounds; round++ {
		lo := round * syncInterval
		hi := lo + syncInterval
		if hi > len(myJobs) {
			hi = len(myJobs)
		}
		if lo < hi {
			pool.RunRange(myJobs, lo, hi)
		}

		global, err := c.coll.AllReduceMin(int64(pool.Bound()))
		if err != nil {
			return Result{}, errors.Wrapf(err, "bound all-reduce, round %d", round)
		}
		pool.FoldBound(int(global))
	}

	if err := c.coll.Barrier(); err != nil {
		return Result{}, errors.Wrap(err, "final barrier")
	}

	local := pool.Best()
	if local.Empty() && !warm.Empty() {
		// nothing strictly better than the warm start was found; the
		// warm ruler itself is still a candidate answer
		local = warm
	}

	solution, err := c.reduceSolution(local, limit)
	if err != nil {
		return Result{}, err
	}

	explored, err := c.coll.AllReduceSum(pool.Explored())
	if err != nil {
		return Result{}, errors.Wrap(err, "explored-count all-reduce")
	}

	return Result{Solution: solution, Explored: explored, Prefixes: len(jobs)}, nil
}

// checkDigest verifies every rank enumerated the same prefix list.
func (c *Coordinator) checkDigest(jobs []search.PrefixJob) error {
	digest := search.DigestPrefixes(jobs)
	root, err := c.coll.Broadcast(0, []int64{int64(digest)})
	if err != nil {
		return errors.Wrap(err, "prefix digest broadcast")
	}
	if uint64(root[0]) != digest {
		return errors.Errorf("rank %d prefix digest %x diverges from root %x", c.coll.Rank(), digest, uint64(root[0]))
	}
	return nil
}

// reduceSolution elects the winning ruler: minimum length, then lowest
// rank, then the winner's marks broadcast to everyone.
func (c *Coordinator) reduceSolution(local search.Solution, limit int) (search.Solution, error) {
	rank, size := c.coll.Rank(), c.coll.Size()

	localLen := int64(limit)
	if !local.Empty() {
		localLen = int64(local.Length)
	}

	bestLen, err := c.coll.AllReduceMin(localLen)
	if err != nil {
		return search.Solution{}, errors.Wrap(err, "best-length all-reduce")
	}

	claim := int64(size)
	if !local.Empty() && localLen == bestLen {
		claim = int64(rank)
	}
	winner, err := c.coll.AllReduceMin(claim)
	if err != nil {
		return search.Solution{}, errors.Wrap(err, "winner all-reduce")
	}
	if winner == int64(size) {
		return search.Solution{}, nil
	}

	vals := make([]int64, 1+MaxBroadcastMarks)
	if int64(rank) == winner {
		vals[0] = int64(len(local.Marks))
		for i, m := range local.Marks {
			vals[1+i] = int64(m)
		}
	}
	vals, err = c.coll.Broadcast(int(winner), vals)
	if err != nil {
		return search.Solution{}, errors.Wrap(err, "solution broadcast")
	}

	numMarks := int(vals[0])
	marks := make([]int, numMarks)
	for i := range marks {
		marks[i] = int(vals[1+i])
	}
	c.logger.Infof("winner rank %d, length %d", winner, bestLen)
	return search.Solution{Length: int(bestLen), Marks: marks}, nil
}

// MaxBroadcastMarks bounds the final marks broadcast.
const MaxBroadcastMarks = search.MaxMarks
