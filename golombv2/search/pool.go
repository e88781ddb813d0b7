package search

import (
	"sync/atomic"

	"github.com/guabee/golomb/golombv2/log"
	"github.com/guabee/golomb/util"
	"golang.org/x/sync/errgroup"
)

// TopicBound is the pubsub topic carrying Solution values each time a
// worker publishes a strictly better complete ruler.
const TopicBound = "golomb.bound"

// Pool runs backtracking kernels over a shared prefix list with a fixed
// set of workers. Jobs are claimed one at a time off an atomic cursor:
// prefix costs vary by orders of magnitude, so static slicing starves.
//
// Shared state is one atomic bound and one atomic explored counter;
// every other mutable structure is owned by a single worker.
type Pool struct {
	n       int
	bound   int32
	cursor  int64
	explore int64

	workers []*poolWorker
	events  *util.PubSub
	logger  *log.Entry
}

type poolWorker struct {
	stack [MaxMarks]Frame
	best  bestSlot
}

// NewPool sets up workers for rulers of order n. initialBound is
// exclusive: only rulers strictly shorter are reported (pass maxLen+1
// to accept anything up to maxLen).
func NewPool(n, threads, initialBound int, events *util.PubSub) *Pool {
	p := &Pool{
		n:       n,
		bound:   int32(initialBound),
		workers: make([]*poolWorker, threads),
		events:  events,
		logger:  log.NewLoggerEntry("pool"),
	}
	for i := range p.workers {
		w := &poolWorker{}
		w.best.length = initialBound
		p.workers[i] = w
	}
	return p
}

// RunRange drains jobs[lo:hi] through the workers and blocks until the
// subtrees are exhausted. It may be called repeatedly (the coordinator
// runs one call per synchronization round).
func (p *Pool) RunRange(jobs []PrefixJob, lo, hi int) {
	if lo >= hi {
		return
	}

	atomic.StoreInt64(&p.cursor, int64(lo))

	var g errgroup.Group
	for _, w := range p.workers {
		w := w
		g.Go(func() error {
			p.runWorker(w, jobs, int64(hi))
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pool) runWorker(w *poolWorker, jobs []PrefixJob, hi int64) {
	var explored int64

	onImprove := func(length int, marks []int) {
		p.logger.Debugf("new best ruler: length=%d marks=%v", length, marks)
		if p.events != nil {
			p.events.Publish(TopicBound, Solution{Length: length, Marks: marks})
		}
	}

	for {
		i := atomic.AddInt64(&p.cursor, 1) - 1
		if i >= hi {
			break
		}
		job := jobs[i]

		current := int(atomic.LoadInt32(&p.bound))
		r := p.n - job.MarksCount
		if job.Length+r*(r+1)/2 >= current {
			continue
		}

		if job.MarksCount == p.n {
			// depth == n only comes from an explicit prefix depth
			// (PrefixDepth stays below n); the prefix is already a
			// complete ruler
			explored++
			if job.Length < w.best.length {
				marks := prefixMarks(job)
				w.best.length = job.Length
				w.best.numMarks = len(marks)
				copy(w.best.marks[:], marks)
				foldBound(&p.bound, int32(job.Length))
				onImprove(job.Length, marks)
			}
			continue
		}

		frame := &w.stack[0]
		frame.ReversedMarks = job.ReversedMarks
		frame.UsedDist = job.UsedDist
		frame.MarksCount = job.MarksCount
		frame.Length = job.Length
		frame.NextCandidate = 0

		extend(&w.stack, p.n, &w.best, &p.bound, &explored, onImprove)
	}

	atomic.AddInt64(&p.explore, explored)
}

func prefixMarks(job PrefixJob) []int {
	return job.ReversedMarks.Marks(job.Length)
}

// Bound is the current exclusive upper bound.
func (p *Pool) Bound() int {
	return int(atomic.LoadInt32(&p.bound))
}

// FoldBound lowers the bound to v if v is smaller. The coordinator folds
// all-reduce results in through here.
func (p *Pool) FoldBound(v int) {
	foldBound(&p.bound, int32(v))
}

// Explored is the number of frames visited so far.
func (p *Pool) Explored() int64 {
	return atomic.LoadInt64(&p.explore)
}

// Best merges the per-worker slots. Only meaningful between RunRange
// calls; ties keep the lowest worker index.
func (p *Pool) Best() Solution {
	var best Solution
	for _, w := range p.workers {
		if w.best.numMarks == 0 {
			continue
		}
		if best.Empty() || w.best.length < best.Length {
			marks := make([]int, w.best.numMarks)
			copy(marks, w.best.marks[:w.best.numMarks])
			best = Solution{Length: w.best.length, Marks: marks}
		}
	}
	return best
}
