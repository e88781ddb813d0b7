package search

import (
	"fmt"
	"time"

	"github.com/guabee/golomb/golombv2/log"
	"github.com/robfig/cron/v3"
)

// Snapshot is polled by the progress reporter.
type Snapshot func() (bound int, explored int64)

// Reporter logs search progress on a fixed cadence while a run is live.
type Reporter struct {
	crontab  *cron.Cron
	snapshot Snapshot
	started  time.Time
	logger   *log.Entry
}

func NewReporter(interval time.Duration, snapshot Snapshot) *Reporter {
	r := &Reporter{
		crontab:  cron.New(cron.WithSeconds()),
		snapshot: snapshot,
		logger:   log.NewLoggerEntry("progress"),
	}
	if interval < time.Second {
		interval = time.Second
	}
	_, _ = r.crontab.AddFunc(durationToEveryString(interval), r.report)
	return r
}

func (r *Reporter) Start() {
	r.started = time.Now()
	r.crontab.Start()
}

func (r *Reporter) Stop() {
	ctx := r.crontab.Stop()
	<-ctx.Done()
}

func (r *Reporter) report() {
	bound, explored := r.snapshot()
	elapsed := time.Since(r.started).Seconds()
	rate := float64(explored) / elapsed
	r.logger.Infof("bound=%d states=%d rate=%.0f/s elapsed=%.0fs", bound, explored, rate, elapsed)
}

func durationToEveryString(duration time.Duration) string {
	return fmt.Sprintf("@every %ds", int(duration.Seconds()))
}
