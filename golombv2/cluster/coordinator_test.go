package cluster_test

import (
	"testing"

	"github.com/guabee/golomb/golombv2/cluster"
	"github.com/guabee/golomb/golombv2/search"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCoordinatorSingleProcess(t *testing.T) {
	coord := cluster.NewCoordinator(cluster.Single{})

	result, err := coord.Run(cluster.Config{N: 6, MaxLen: search.MaxLen, Threads: 2})
	require.NoError(t, err)
	require.Equal(t, 17, result.Solution.Length)
	require.True(t, search.Validate(result.Solution.Marks))
	require.Greater(t, result.Explored, int64(0))
	require.Greater(t, result.Prefixes, 0)
}

func TestCoordinatorSingleProcessGreedyAndEmpty(t *testing.T) {
	coord := cluster.NewCoordinator(cluster.Single{})

	result, err := coord.Run(cluster.Config{N: 7, MaxLen: search.MaxLen, Threads: 2, Greedy: true})
	require.NoError(t, err)
	require.Equal(t, 25, result.Solution.Length)

	result, err = coord.Run(cluster.Config{N: 5, MaxLen: 10, Threads: 1, Greedy: true})
	require.NoError(t, err)
	require.True(t, result.Solution.Empty())
}

func TestCoordinatorValidatesArgs(t *testing.T) {
	coord := cluster.NewCoordinator(cluster.Single{})
	_, err := coord.Run(cluster.Config{N: 1, MaxLen: 127, Threads: 1})
	require.Error(t, err)
	_, err = coord.Run(cluster.Config{N: 5, MaxLen: 200, Threads: 1})
	require.Error(t, err)
}

// runDistributed runs one coordinator per rank over a loopback
// collective and requires every rank to agree on the result.
func runDistributed(t *testing.T, size int, cfg cluster.Config) cluster.Result {
	t.Helper()

	colls := startCollective(t, size)
	results := make([]cluster.Result, size)

	var g errgroup.Group
	for rank := 0; rank < size; rank++ {
		rank := rank
		g.Go(func() error {
			res, err := cluster.NewCoordinator(colls[rank]).Run(cfg)
			if err != nil {
				return err
			}
			results[rank] = res
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for rank := 1; rank < size; rank++ {
		require.Equal(t, results[0].Solution, results[rank].Solution, "rank %d solution differs", rank)
		require.Equal(t, results[0].Explored, results[rank].Explored, "rank %d explored differs", rank)
	}
	return results[0]
}

func TestCoordinatorTwoRanks(t *testing.T) {
	result := runDistributed(t, 2, cluster.Config{
		N:            7,
		MaxLen:       search.MaxLen,
		Threads:      2,
		SyncInterval: 4,
	})
	require.Equal(t, 25, result.Solution.Length)
	require.True(t, search.Validate(result.Solution.Marks))
}

func TestCoordinatorThreeRanks(t *testing.T) {
	// not a power of two, with greedy warm start and tiny rounds
	result := runDistributed(t, 3, cluster.Config{
		N:            6,
		MaxLen:       search.MaxLen,
		Threads:      1,
		SyncInterval: 2,
		Greedy:       true,
	})
	require.Equal(t, 17, result.Solution.Length)
	require.True(t, search.Validate(result.Solution.Marks))
}

func TestCoordinatorDistributedEmptyResult(t *testing.T) {
	result := runDistributed(t, 2, cluster.Config{
		N:            5,
		MaxLen:       10,
		Threads:      1,
		SyncInterval: 1,
	})
	require.True(t, result.Solution.Empty())
}

func TestCoordinatorLengthMatchesSingleProcess(t *testing.T) {
	single, err := cluster.NewCoordinator(cluster.Single{}).Run(cluster.Config{
		N: 8, MaxLen: search.MaxLen, Threads: 2,
	})
	require.NoError(t, err)

	distributed := runDistributed(t, 2, cluster.Config{
		N:            8,
		MaxLen:       search.MaxLen,
		Threads:      2,
		SyncInterval: 16,
	})
	require.Equal(t, single.Solution.Length, distributed.Solution.Length)
	require.Equal(t, 34, distributed.Solution.Length)
}
