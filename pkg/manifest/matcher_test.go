package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_RequestsPinned(t *testing.T) {
	t.Parallel()

	for _, strategy := range []Strategy{StrategyExact, StrategySubstring} {
		m := NewMatcher(NewIndex("requests          2.31.0\n"), WithStrategy(strategy))

		res := m.Match([]string{"requests"})
		require.Len(t, res.Entries, 1, strategy)
		assert.Equal(t, "requests==2.31.0", res.Entries[0].String())
		assert.Empty(t, res.Unmatched)
	}
}

func TestMatcher_NotFound(t *testing.T) {
	t.Parallel()

	for _, strategy := range []Strategy{StrategyExact, StrategySubstring} {
		m := NewMatcher(NewIndex(pipListing), WithStrategy(strategy))

		res := m.Match([]string{"zzz_missing"})
		assert.Empty(t, res.Entries)
		require.Len(t, res.Unmatched, 1)
		assert.Equal(t, "zzz_missing", res.Unmatched[0].Name)
	}
}

func TestMatcher_EntriesAreSubsetWithoutDuplicates(t *testing.T) {
	t.Parallel()

	names := []string{"pandas", "numpy", "numpy", "os", "requests", "pandas"}
	res := NewMatcher(NewIndex(pipListing+"\n"+condaListing)).Match(names)

	seen := map[string]bool{}

	for _, e := range res.Entries {
		assert.Contains(t, names, e.Name)
		assert.False(t, seen[e.Name], e.Name)
		seen[e.Name] = true
	}

	assert.Equal(t, []Entry{
		{Name: "numpy", Version: "1.26.4"},
		{Name: "pandas", Version: "2.2.1"},
		{Name: "requests", Version: "2.31.0"},
	}, res.Entries)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, "os", res.Unmatched[0].Name)
}

func TestMatcher_ExactDottedNames(t *testing.T) {
	t.Parallel()

	listing := "Package Version\n---------- -------\ngoogle-cloud-storage 2.14.0\nmatplotlib 3.8.0\nscipy 1.11.0\n"
	names := []string{"google.cloud.storage", "matplotlib", "matplotlib.pyplot", "scipy.stats"}
	res := NewMatcher(NewIndex(listing)).Match(names)

	assert.Equal(t, []Entry{
		{Name: "google.cloud.storage", Version: "2.14.0"},
		{Name: "matplotlib", Version: "3.8.0"},
	}, res.Entries)

	require.Len(t, res.Unmatched, 2)
	assert.Equal(t, "matplotlib.pyplot", res.Unmatched[0].Name)
	assert.Equal(t, "matplotlib", res.Unmatched[0].Suggestions[0])
	assert.Equal(t, "scipy.stats", res.Unmatched[1].Name)
	assert.Equal(t, "scipy", res.Unmatched[1].Suggestions[0])

	legacy := NewMatcher(NewIndex(listing), WithStrategy(StrategySubstring)).Match(names)
	assert.Equal(t, res.Entries, legacy.Entries)
}

func TestMatcher_ExactAvoidsSubstringFalsePositive(t *testing.T) {
	t.Parallel()

	listing := "pyyaml 6.0.1\n"

	exact := NewMatcher(NewIndex(listing), WithStrategy(StrategyExact)).Match([]string{"yaml"})
	assert.Empty(t, exact.Entries)

	legacy := NewMatcher(NewIndex(listing), WithStrategy(StrategySubstring)).Match([]string{"yaml"})
	assert.Equal(t, []Entry{{Name: "yaml", Version: "6.0.1"}}, legacy.Entries)
}

func TestMatcher_SubstringFirstLineWins(t *testing.T) {
	t.Parallel()

	listing := "lonelyos\nmacos-utils 0.1\nos-sys 2.0\n"
	res := NewMatcher(NewIndex(listing), WithStrategy(StrategySubstring)).Match([]string{"os"})

	assert.Equal(t, []Entry{{Name: "os", Version: "0.1"}}, res.Entries)
}

func TestMatcher_Suggestions(t *testing.T) {
	t.Parallel()

	res := NewMatcher(NewIndex(pipListing)).Match([]string{"sklearn"})
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, []string{"scikit-learn"}, res.Unmatched[0].Suggestions)

	none := NewMatcher(NewIndex(pipListing), WithSuggestions(0)).Match([]string{"sklearn"})
	assert.Nil(t, none.Unmatched[0].Suggestions)
}

func TestMatcher_SuggestionLimit(t *testing.T) {
	t.Parallel()

	listing := "pya 1\npyb 1\npyc 1\npyd 1\n"
	res := NewMatcher(NewIndex(listing), WithSuggestions(2)).Match([]string{"py"})
	require.Len(t, res.Unmatched, 1)
	assert.Len(t, res.Unmatched[0].Suggestions, 2)
}

func TestMatcher_EmptyInput(t *testing.T) {
	t.Parallel()

	res := NewMatcher(NewIndex(pipListing)).Match(nil)
	assert.Empty(t, res.Entries)
	assert.Empty(t, res.Unmatched)
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyExact, s)

	s, err = ParseStrategy(" Substring ")
	require.NoError(t, err)
	assert.Equal(t, StrategySubstring, s)

	_, err = ParseStrategy("best")
	require.ErrorIs(t, err, ErrUnknownStrategy)

	assert.Equal(t, []string{"exact", "substring"}, Strategies())
}
