package bench_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guabee/golomb/golombv2/bench"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "golomb_benchmark.csv")
	logger := bench.NewLogger(path)

	ts := time.Date(2024, 5, 12, 9, 30, 0, 0, time.Local)
	require.NoError(t, logger.Append(bench.Row{
		Timestamp:   ts,
		N:           10,
		Procs:       2,
		Threads:     8,
		Length:      55,
		TimeS:       1.25,
		States:      4000000,
		Description: "baseline",
	}))
	require.NoError(t, logger.Append(bench.Row{
		Timestamp: ts.Add(time.Minute),
		N:         11,
		Procs:     2,
		Threads:   8,
		Length:    72,
		TimeS:     30.5,
		States:    90000000,
	}))

	rows, err := bench.Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, 10, rows[0].N)
	require.Equal(t, 2, rows[0].Procs)
	require.Equal(t, 8, rows[0].Threads)
	require.Equal(t, 55, rows[0].Length)
	require.InDelta(t, 1.25, rows[0].TimeS, 1e-9)
	require.Equal(t, int64(4000000), rows[0].States)
	require.Equal(t, "baseline", rows[0].Description)
	require.Equal(t, ts, rows[0].Timestamp)

	require.Equal(t, 72, rows[1].Length)
	require.InDelta(t, 90000000/30.5, rows[1].StatesPerSecond(), 1e-6)

	// single header even after two appends
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), "timestamp,n,procs"))
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bench.csv")
	htmlPath := filepath.Join(dir, "bench.html")

	logger := bench.NewLogger(csvPath)
	require.NoError(t, logger.Append(bench.Row{N: 8, Procs: 1, Threads: 4, Length: 34, TimeS: 0.2, States: 100000}))
	require.NoError(t, logger.Append(bench.Row{N: 9, Procs: 1, Threads: 4, Length: 44, TimeS: 2.1, States: 2100000}))

	require.NoError(t, bench.Render(csvPath, htmlPath))

	data, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "echarts")
}

func TestRenderMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, bench.Render(filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.html")))
}
