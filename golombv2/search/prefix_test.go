package search_test

import (
	"testing"

	"github.com/guabee/golomb/golombv2/search"
	"github.com/stretchr/testify/require"
)

func TestGeneratePrefixesDeterministic(t *testing.T) {
	a := search.GeneratePrefixes(10, 127, 3)
	b := search.GeneratePrefixes(10, 127, 3)

	require.NotEmpty(t, a)
	require.Equal(t, a, b)
	require.Equal(t, search.DigestPrefixes(a), search.DigestPrefixes(b))
}

func TestGeneratePrefixesShape(t *testing.T) {
	jobs := search.GeneratePrefixes(8, 127, 3)
	require.NotEmpty(t, jobs)

	for _, j := range jobs {
		require.Equal(t, 3, j.MarksCount)
		require.True(t, j.ReversedMarks.IsSet(0), "last mark bit missing")
		require.True(t, j.Length >= 3, "3 marks need length >= 3, got %d", j.Length)

		marks := j.ReversedMarks.Marks(j.Length)
		require.Len(t, marks, 3)
		require.True(t, search.Validate(marks), "prefix %v not a partial ruler", marks)
	}
}

func TestGeneratePrefixesDigestDependsOnInput(t *testing.T) {
	a := search.GeneratePrefixes(10, 127, 3)
	b := search.GeneratePrefixes(10, 100, 3)
	require.NotEqual(t, search.DigestPrefixes(a), search.DigestPrefixes(b))
}

func TestMirrorBreakShrinksPrefixSet(t *testing.T) {
	full := search.GeneratePrefixes(9, 127, 3)
	broken := search.GeneratePrefixes(9, 127, 3, search.WithMirrorBreak())
	require.Less(t, len(broken), len(full))
	require.NotEmpty(t, broken)
}

func TestPrefixDepthTiers(t *testing.T) {
	require.Equal(t, 2, search.PrefixDepth(6, 4))
	require.Equal(t, 3, search.PrefixDepth(10, 4))
	require.Equal(t, 4, search.PrefixDepth(12, 4))
	require.Equal(t, 5, search.PrefixDepth(16, 4))
	require.Equal(t, 6, search.PrefixDepth(20, 128))

	// clamped into [2, n-3] and always below n
	require.Equal(t, 2, search.PrefixDepth(5, 128))
	require.Equal(t, 1, search.PrefixDepth(2, 1))
	require.Equal(t, 2, search.PrefixDepth(3, 1))
}
