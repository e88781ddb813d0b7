// Package bench appends one CSV row per search run and can render the
// accumulated file into an HTML chart.
package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var header = []string{"timestamp", "n", "procs", "threads_per_proc", "length", "time_s", "states", "description"}

// Row is one benchmark record. Length -1 means no ruler was found
// within the bound.
type Row struct {
	Timestamp   time.Time
	N           int
	Procs       int
	Threads     int
	Length      int
	TimeS       float64
	States      int64
	Description string
}

// StatesPerSecond is the derived throughput column used by Render.
func (r Row) StatesPerSecond() float64 {
	if r.TimeS <= 0 {
		return 0
	}
	return float64(r.States) / r.TimeS
}

// Logger appends rows to a single CSV file, creating it (with header)
// and its directory on first use.
type Logger struct {
	path string
}

func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

func (l *Logger) Append(row Row) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.Wrap(err, "create benchmark dir")
	}

	_, statErr := os.Stat(l.path)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open benchmark file")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if isNew {
		if err := w.Write(header); err != nil {
			return errors.Wrap(err, "write benchmark header")
		}
	}

	ts := row.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	record := []string{
		ts.Format("2006-01-02 15:04:05"),
		strconv.Itoa(row.N),
		strconv.Itoa(row.Procs),
		strconv.Itoa(row.Threads),
		strconv.Itoa(row.Length),
		fmt.Sprintf("%.5f", row.TimeS),
		strconv.FormatInt(row.States, 10),
		row.Description,
	}
	if err := w.Write(record); err != nil {
		return errors.Wrap(err, "write benchmark row")
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush benchmark row")
}

// Load reads every row of a benchmark CSV back.
func Load(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open benchmark file")
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse benchmark file")
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, errors.Errorf("benchmark row has %d columns, want %d", len(rec), len(header))
		}
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", rec[0], time.Local)
		if err != nil {
			return nil, errors.Wrap(err, "parse benchmark timestamp")
		}
		n, _ := strconv.Atoi(rec[1])
		procs, _ := strconv.Atoi(rec[2])
		threads, _ := strconv.Atoi(rec[3])
		length, _ := strconv.Atoi(rec[4])
		timeS, _ := strconv.ParseFloat(rec[5], 64)
		states, _ := strconv.ParseInt(rec[6], 10, 64)
		rows = append(rows, Row{
			Timestamp:   ts,
			N:           n,
			Procs:       procs,
			Threads:     threads,
			Length:      length,
			TimeS:       timeS,
			States:      states,
			Description: rec[7],
		})
	}
	return rows, nil
}
