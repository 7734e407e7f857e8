package symtypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/rules"
	"github.com/ksymtools/ksymtools/internal/testutil"
)

// loadPair loads two corpora from file maps through one shared interner.
func loadPair(t *testing.T, a, b map[string]string) (*Corpus, *Corpus) {
	t.Helper()
	table := intern.NewTable()

	dirA := t.TempDir()
	testutil.WriteTree(t, dirA, a)
	corpusA, err := LoadDirectory(table, dirA, 2)
	require.NoError(t, err)

	dirB := t.TempDir()
	testutil.WriteTree(t, dirB, b)
	corpusB, err := LoadDirectory(table, dirB, 2)
	require.NoError(t, err)

	return corpusA, corpusB
}

func TestCompare_SelfDiffIsEmpty(t *testing.T) {
	a, b := loadPair(t, docExample, docExample)

	result, err := Compare(a, b, nil, 2)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestCompare_AddedAndRemovedExports(t *testing.T) {
	a, b := loadPair(t,
		map[string]string{"a.symtypes": "old void old ( )\nboth void both ( )\n"},
		map[string]string{"a.symtypes": "new void new ( )\nboth void both ( )\n"},
	)

	result, err := Compare(a, b, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, result.Added)
	assert.Equal(t, []string{"old"}, result.Removed)
	assert.Empty(t, result.Changed)

	// Symmetry under negation: the transpose holds.
	reverse, err := Compare(b, a, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, result.Added, reverse.Removed)
	assert.Equal(t, result.Removed, reverse.Added)
}

func TestCompare_ChangedTypeReachesAllExports(t *testing.T) {
	// Every export whose closure reaches s#foo reports the change; the
	// unaffected export stays silent.
	base := map[string]string{
		"a.symtypes": "s#foo struct foo { int m ; }\n" +
			"s#wrap struct wrap { s#foo inner ; }\n" +
			"direct void direct ( s#foo )\n" +
			"indirect void indirect ( s#wrap )\n",
		"b.symtypes": "t#plain int\n" +
			"untouched t#plain untouched ( )\n",
	}
	modified := map[string]string{
		"a.symtypes": strings.Replace(base["a.symtypes"], "{ int m ; }", "{ long m ; }", 1),
		"b.symtypes": base["b.symtypes"],
	}

	a, b := loadPair(t, base, modified)
	result, err := Compare(a, b, nil, 2)
	require.NoError(t, err)

	require.Len(t, result.Changed, 2)
	assert.Equal(t, "direct", result.Changed[0].Name)
	assert.Equal(t, "indirect", result.Changed[1].Name)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
}

func TestCompare_ChangeRecordedAtFinestType(t *testing.T) {
	a, b := loadPair(t,
		map[string]string{"a.symtypes": "s#foo struct foo { int m ; }\n" +
			"s#wrap struct wrap { s#foo inner ; }\n" +
			"exp void exp ( s#wrap )\n"},
		map[string]string{"a.symtypes": "s#foo struct foo { long m ; }\n" +
			"s#wrap struct wrap { s#foo inner ; }\n" +
			"exp void exp ( s#wrap )\n"},
	)

	result, err := Compare(a, b, nil, 1)
	require.NoError(t, err)
	require.Len(t, result.Changed, 1)

	changes := result.Changed[0].Changes
	require.Len(t, changes, 1)
	assert.Equal(t, "s#foo", changes[0].Ident)
	assert.Equal(t, []string{"s#wrap", "s#foo"}, changes[0].Path)
	assert.Equal(t, "struct foo { int m ; }", changes[0].Old)
	assert.Equal(t, "struct foo { long m ; }", changes[0].New)
}

func TestCompare_ExportSignatureChange(t *testing.T) {
	a, b := loadPair(t,
		map[string]string{"a.symtypes": "exp void exp ( int )\n"},
		map[string]string{"a.symtypes": "exp void exp ( long )\n"},
	)

	result, err := Compare(a, b, nil, 1)
	require.NoError(t, err)
	require.Len(t, result.Changed, 1)

	changes := result.Changed[0].Changes
	require.Len(t, changes, 1)
	assert.Equal(t, "exp", changes[0].Ident)
	assert.Empty(t, changes[0].Path)
}

func TestCompare_EqualCyclesCompareEqual(t *testing.T) {
	cyclic := map[string]string{
		"a.symtypes": "s#a struct a { s#b * next ; }\n" +
			"s#b struct b { s#a * prev ; }\n" +
			"exp void exp ( s#a )\n",
	}

	a, b := loadPair(t, cyclic, cyclic)
	result, err := Compare(a, b, nil, 1)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestCompare_UnequalCycleReportsFirstDivergence(t *testing.T) {
	a, b := loadPair(t,
		map[string]string{"a.symtypes": "s#a struct a { s#b * next ; int x ; }\n" +
			"s#b struct b { s#a * prev ; }\n" +
			"exp void exp ( s#a )\n"},
		map[string]string{"a.symtypes": "s#a struct a { s#b * next ; long x ; }\n" +
			"s#b struct b { s#a * prev ; }\n" +
			"exp void exp ( s#a )\n"},
	)

	result, err := Compare(a, b, nil, 1)
	require.NoError(t, err)
	require.Len(t, result.Changed, 1)

	changes := result.Changed[0].Changes
	require.Len(t, changes, 1)
	assert.Equal(t, "s#a", changes[0].Ident)
}

func TestCompare_VariantResolvedByFileContext(t *testing.T) {
	// u#bar is two-variant on each side; the export's file binds variant 1
	// on both sides and those definitions agree, so nothing changed.
	files := func(lDef string) map[string]string {
		return map[string]string{
			"a.symtypes": "u#bar union bar { int i ; }\nother void other ( u#bar )\n",
			"b.symtypes": "u#bar union bar { " + lDef + " }\nexp void exp ( u#bar )\n",
		}
	}

	a, b := loadPair(t, files("long l ;"), files("long l ;"))
	result, err := Compare(a, b, nil, 2)
	require.NoError(t, err)
	assert.True(t, result.Empty())

	a, b = loadPair(t, files("long l ;"), files("short s ;"))
	result, err = Compare(a, b, nil, 2)
	require.NoError(t, err)
	require.Len(t, result.Changed, 1)
	assert.Equal(t, "exp", result.Changed[0].Name)
}

func TestCompare_FilterRestrictsOutput(t *testing.T) {
	a, b := loadPair(t,
		map[string]string{"a.symtypes": "s#foo struct foo { int m ; }\n" +
			"keep void keep ( s#foo )\ndrop void drop ( s#foo )\ngone void gone ( )\n"},
		map[string]string{"a.symtypes": "s#foo struct foo { long m ; }\n" +
			"keep void keep ( s#foo )\ndrop void drop ( s#foo )\nnew void new ( )\n"},
	)

	unfiltered, err := Compare(a, b, nil, 1)
	require.NoError(t, err)
	assert.Len(t, unfiltered.Changed, 2)
	assert.Equal(t, []string{"new"}, unfiltered.Added)
	assert.Equal(t, []string{"gone"}, unfiltered.Removed)

	filter, err := rules.ParseFilter(strings.NewReader("keep\n"), "filter")
	require.NoError(t, err)

	filtered, err := Compare(a, b, filter, 1)
	require.NoError(t, err)
	require.Len(t, filtered.Changed, 1)
	assert.Equal(t, "keep", filtered.Changed[0].Name)
	assert.Empty(t, filtered.Added)
	assert.Empty(t, filtered.Removed)
}

func TestCompare_ConsolidatedVersusDirectory(t *testing.T) {
	// A corpus compares equal to its own consolidated form.
	dir := t.TempDir()
	testutil.WriteTree(t, dir, docExample)

	table := intern.NewTable()
	fromDir, err := LoadDirectory(table, dir, 2)
	require.NoError(t, err)

	consolidated := testutil.WriteFile(t, t.TempDir(), "consolidated",
		consolidateToString(t, fromDir))
	fromFile, err := LoadConsolidated(table, consolidated)
	require.NoError(t, err)

	result, err := Compare(fromDir, fromFile, nil, 2)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestCompare_DeterministicAcrossJobs(t *testing.T) {
	base := map[string]string{
		"a.symtypes": "s#foo struct foo { int m ; }\n" +
			"e1 void e1 ( s#foo )\ne2 void e2 ( s#foo )\ne3 void e3 ( s#foo )\n",
	}
	changed := map[string]string{
		"a.symtypes": strings.Replace(base["a.symtypes"], "int m", "long m", 1),
	}

	a, b := loadPair(t, base, changed)

	first, err := Compare(a, b, nil, 1)
	require.NoError(t, err)
	for _, jobs := range []int{2, 8} {
		again, err := Compare(a, b, nil, jobs)
		require.NoError(t, err)
		assert.Equal(t, first, again, "jobs=%d", jobs)
	}
}
