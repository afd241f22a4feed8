package fuzzy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mur0dDev/Classification-Bot/internal/vocab"
)

func lookup(t *testing.T, name string) []string {
	t.Helper()
	entries, ok := vocab.Default().Lookup(name)
	require.True(t, ok)
	return entries
}

func TestResolveMisspelledCountry(t *testing.T) {
	got, err := Resolve("uzbekistn", lookup(t, vocab.Nationalities))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Uzbekistan", got[0])
}

func TestResolveMisspelledColor(t *testing.T) {
	got, err := Resolve("  gren ", lookup(t, vocab.Colors))
	require.NoError(t, err)
	assert.Equal(t, "Green", got[0])
}

func TestResolveRejectsNonAlphabetic(t *testing.T) {
	for _, in := range []string{"", "   ", "blue1", "dark blue", "42", "red!"} {
		_, err := Resolve(in, []string{"Red"})
		assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", in)
	}
}

func TestResolveNoMatchBelowCutoff(t *testing.T) {
	got, err := Resolve("qqqqqq", []string{"Red", "Blue", "Green"})
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Empty(t, got)
}

func TestRankBoundedAndOrdered(t *testing.T) {
	vocabulary := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		vocabulary = append(vocabulary, fmt.Sprintf("Cat%c", 'a'+i%26))
	}
	vocabulary = append(vocabulary, "Cat")

	matches, err := Rank("cat", vocabulary)
	require.NoError(t, err)
	require.Len(t, matches, MaxCandidates)
	assert.Equal(t, "Cat", matches[0].Value)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		assert.GreaterOrEqual(t, matches[i].Score, Cutoff)
	}
}

func TestRankTiesKeepVocabularyOrder(t *testing.T) {
	matches, err := Rank("ab", []string{"Abx", "Aby", "Abz"})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "Abx", matches[0].Value)
	assert.Equal(t, "Aby", matches[1].Value)
	assert.Equal(t, "Abz", matches[2].Value)
}

func TestRatioMatchesSequenceMatcher(t *testing.T) {
	// 2*M/T with M=4 matching characters over 9 total
	matches, err := Rank("gren", []string{"Green"})
	require.NoError(t, err)
	assert.InDelta(t, 8.0/9.0, matches[0].Score, 1e-9)
}

func TestExact(t *testing.T) {
	got, ok := Exact(" blue ", lookup(t, vocab.Colors))
	require.True(t, ok)
	assert.Equal(t, "Blue", got)

	_, ok = Exact("blu", lookup(t, vocab.Colors))
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("gERMANY")
	require.NoError(t, err)
	assert.Equal(t, "Germany", got)
}
