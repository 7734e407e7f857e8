package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksymtools/ksymtools/internal/kerrors"
	"github.com/ksymtools/ksymtools/internal/testutil"
)

var docExample = map[string]string{
	"a.symtypes": "s#foo struct foo { int m ; }\n" +
		"u#bar union bar { int i ; float f ; }\n" +
		"baz int baz ( s#foo , u#bar )\n",
	"b.symtypes": "s#foo struct foo { int m ; }\n" +
		"u#bar union bar { int i ; long l ; }\n" +
		"qux void qux ( u#bar )\n",
}

const docConsolidated = "s#foo struct foo { int m ; }\n" +
	"u#bar@0 union bar { int i ; float f ; }\n" +
	"u#bar@1 union bar { int i ; long l ; }\n" +
	"baz int baz ( s#foo , u#bar )\n" +
	"qux void qux ( u#bar )\n" +
	"F#a.symtypes baz u#bar@0\n" +
	"F#b.symtypes qux u#bar@1\n"

func runKsymtypes(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewKsymtypesCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func runKsymvers(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewKsymversCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestConsolidate_DocExample(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, docExample)
	out := filepath.Join(t.TempDir(), "consolidated")

	err := runKsymtypes(t, "consolidate", "-o", out, dir)
	require.NoError(t, err)

	assert.Equal(t, docConsolidated, testutil.ReadFile(t, out))
}

func TestConsolidate_RequiresOutput(t *testing.T) {
	err := runKsymtypes(t, "consolidate", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output")
}

func TestConsolidate_MalformedInputExitCode(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "bad.symtypes", "baz void baz ( 'oops )\n")

	err := runKsymtypes(t, "consolidate", "-o", filepath.Join(t.TempDir(), "out"), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "bad.symtypes:1")
	assert.Equal(t, ExitError, ExitCodeFromError(err))
}

func TestSplitThenConsolidate_RoundTrip(t *testing.T) {
	src := testutil.WriteFile(t, t.TempDir(), "consolidated", docConsolidated)
	splitDir := filepath.Join(t.TempDir(), "split")

	require.NoError(t, runKsymtypes(t, "split", "-o", splitDir, src))

	out := filepath.Join(t.TempDir(), "re-consolidated")
	require.NoError(t, runKsymtypes(t, "consolidate", "-o", out, splitDir))

	assert.Equal(t, docConsolidated, testutil.ReadFile(t, out))
}

func TestCompare_SelfIsCleanForEveryFormat(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, docExample)

	for _, format := range []string{"null", "pretty", "short", "symbols", "mod-symbols"} {
		outFile := filepath.Join(t.TempDir(), "diff.txt")
		err := runKsymtypes(t, "compare", "-f", format+":"+outFile, dir, dir)
		require.NoError(t, err, format)
		assert.Empty(t, testutil.ReadFile(t, outFile), format)
	}
}

func TestCompare_ChangedTypeListsAffectedExports(t *testing.T) {
	dirA := t.TempDir()
	testutil.WriteTree(t, dirA, docExample)

	modified := map[string]string{
		"a.symtypes": "s#foo struct foo { long m ; }\n" +
			"u#bar union bar { int i ; float f ; }\n" +
			"baz int baz ( s#foo , u#bar )\n",
		"b.symtypes": docExample["b.symtypes"],
	}
	dirB := t.TempDir()
	testutil.WriteTree(t, dirB, modified)

	outFile := filepath.Join(t.TempDir(), "diff.txt")
	err := runKsymtypes(t, "compare", "-f", "symbols:"+outFile, dirA, dirB)

	require.Error(t, err)
	var exitErr *kerrors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitDifferences, exitErr.Code)

	// Only baz reaches s#foo; qux is untouched.
	assert.Equal(t, "baz\n", testutil.ReadFile(t, outFile))
}

func TestCompare_FilterSymbolList(t *testing.T) {
	dirA := t.TempDir()
	testutil.WriteTree(t, dirA, map[string]string{
		"a.symtypes": "s#foo struct foo { int m ; }\n" +
			"baz void baz ( s#foo )\nqux int qux ( s#foo )\n",
	})
	dirB := t.TempDir()
	testutil.WriteTree(t, dirB, map[string]string{
		"a.symtypes": "s#foo struct foo { long m ; }\n" +
			"baz void baz ( s#foo )\nqux int qux ( s#foo )\n",
	})

	filterFile := testutil.WriteFile(t, t.TempDir(), "filter", "qux\n")
	outFile := filepath.Join(t.TempDir(), "diff.txt")

	err := runKsymtypes(t, "compare",
		"--filter-symbol-list", filterFile, "-f", "symbols:"+outFile, dirA, dirB)
	require.Error(t, err)
	assert.Equal(t, "qux\n", testutil.ReadFile(t, outFile))
}

func TestCompare_ConsolidatedInput(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, docExample)
	consolidated := testutil.WriteFile(t, t.TempDir(), "consolidated", docConsolidated)

	outFile := filepath.Join(t.TempDir(), "diff.txt")
	err := runKsymtypes(t, "compare", "-f", "symbols:"+outFile, dir, consolidated)
	require.NoError(t, err)
	assert.Empty(t, testutil.ReadFile(t, outFile))
}

func TestCompare_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, docExample)

	err := runKsymtypes(t, "compare", "-f", "yaml", dir, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
	assert.Equal(t, ExitError, ExitCodeFromError(err))
}

func TestSymversCompare_PassRule(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteFile(t, dir, "base.symvers",
		"0x12345678\tschedule\tvmlinux\tEXPORT_SYMBOL\n")
	f2 := testutil.WriteFile(t, dir, "new.symvers",
		"0x87654321\tschedule\tvmlinux\tEXPORT_SYMBOL\n")
	ruleFile := testutil.WriteFile(t, dir, "rules", "schedule pass\n* fail\n")

	outFile := filepath.Join(dir, "diff.txt")

	// The change is reported but tolerated: exit 0.
	err := runKsymvers(t, "compare", "-r", ruleFile, "-f", "short:"+outFile, f1, f2)
	require.NoError(t, err)
	assert.Equal(t, "schedule: crc-changed\n", testutil.ReadFile(t, outFile))

	// Without rules the same change fails.
	err = runKsymvers(t, "compare", "-f", "null:"+outFile, f1, f2)
	require.Error(t, err)
	var exitErr *kerrors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitDifferences, exitErr.Code)
}

func TestSymversCompare_MalformedRule(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteFile(t, dir, "a.symvers", "0x1\tsym\tvmlinux\tEXPORT_SYMBOL\n")
	ruleFile := testutil.WriteFile(t, dir, "rules", "sym warn\n")

	err := runKsymvers(t, "compare", "-r", ruleFile, f1, f1)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrMalformedRule)
	assert.Equal(t, ExitError, ExitCodeFromError(err))
}

func TestSymversCompare_Identical(t *testing.T) {
	dir := t.TempDir()
	f1 := testutil.WriteFile(t, dir, "a.symvers", "0x1\tsym\tvmlinux\tEXPORT_SYMBOL\n")

	err := runKsymvers(t, "compare", "-f", "null", f1, f1)
	assert.NoError(t, err)
}

func TestExitCodeFromError(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeFromError(nil))
	assert.Equal(t, ExitError, ExitCodeFromError(errors.New("boom")))
	assert.Equal(t, ExitDifferences, ExitCodeFromError(DifferencesFound()))
	assert.Equal(t, ExitError, ExitCodeFromError(kerrors.ErrMalformedRecord))
}

func TestVersionCommand(t *testing.T) {
	cmd := NewKsymtypesCmd()
	var out bytes.Buffer
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "version:")
	assert.Contains(t, out.String(), "go:")
}
