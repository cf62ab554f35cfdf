package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/aipkg/internal/conflict"
)

func TestUninstall_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.install(fullPackage(t), conflict.StrategySkip)
	rec, _ := f.record("acme", "style-pack")
	var paths []string
	for _, c := range rec.Components {
		paths = append(paths, c.InstalledPath)
	}

	report, err := f.engine.Uninstall(f.ctx, "acme", "style-pack", UninstallOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Count(ActionRemoved))
	for _, p := range paths {
		assert.NoFileExists(t, p)
		assert.NoDirExists(t, filepath.Dir(p), "empty namespace directory is cleaned up")
	}
	records, err := f.ledger.List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUninstall_LeavesOtherFilesInNamespaceDir(t *testing.T) {
	f := newFixture(t)
	f.install(makePackage(t, "acme", "p", "1.0.0", map[string]string{"instruction/a": "a"}), conflict.StrategySkip)
	other := f.instructionPath("acme", "notes")
	writeFile(t, other, "user notes")

	_, err := f.engine.Uninstall(f.ctx, "acme", "p", UninstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "user notes", readFile(t, other))
}

func TestUninstall_AlreadyAbsent(t *testing.T) {
	f := newFixture(t)
	f.install(makePackage(t, "acme", "p", "1.0.0", map[string]string{
		"instruction/a": "a",
		"instruction/b": "b",
	}), conflict.StrategySkip)
	require.NoError(t, os.Remove(f.instructionPath("acme", "a")))

	report, err := f.engine.Uninstall(f.ctx, "acme", "p", UninstallOptions{})
	require.NoError(t, err)

	assert.Equal(t, ActionAlreadyAbsent, actions(report)["instruction/a"])
	assert.Equal(t, ActionRemoved, actions(report)["instruction/b"])
	assert.False(t, report.Failed())
	_, ok := f.record("acme", "p")
	assert.False(t, ok)
}

func TestUninstall_ComponentFilter(t *testing.T) {
	f := newFixture(t)
	f.install(fullPackage(t), conflict.StrategySkip)

	report, err := f.engine.Uninstall(f.ctx, "acme", "style-pack", UninstallOptions{
		Components: []string{"instruction/*", "format"},
	})
	require.NoError(t, err)

	got := actions(report)
	assert.Len(t, got, 2)
	assert.Equal(t, ActionRemoved, got["instruction/style"])
	assert.Equal(t, ActionRemoved, got["hook/format"])

	rec, ok := f.record("acme", "style-pack")
	require.True(t, ok)
	assert.Len(t, rec.Components, 3)

	_, err = f.engine.Uninstall(f.ctx, "acme", "style-pack", UninstallOptions{Components: []string{"**"}})
	require.NoError(t, err)
	_, ok = f.record("acme", "style-pack")
	assert.False(t, ok, "record deleted with its last component")
}

func TestUninstall_UnmatchedPatternChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.install(makePackage(t, "acme", "p", "1.0.0", map[string]string{"instruction/a": "a"}), conflict.StrategySkip)

	_, err := f.engine.Uninstall(f.ctx, "acme", "p", UninstallOptions{Components: []string{"instruction/a", "hook/*"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"hook/*"`)
	assert.FileExists(t, f.instructionPath("acme", "a"))
	_, ok := f.record("acme", "p")
	assert.True(t, ok)
}

func TestUninstall_KeepsSkippedForeignFile(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.instructionPath("acme", "a"), "mine")
	f.install(makePackage(t, "acme", "p", "1.0.0", map[string]string{
		"instruction/a": "theirs",
		"instruction/b": "b",
	}), conflict.StrategySkip)

	report, err := f.engine.Uninstall(f.ctx, "acme", "p", UninstallOptions{})
	require.NoError(t, err)

	assert.Equal(t, ActionKept, actions(report)["instruction/a"])
	assert.Equal(t, "mine", readFile(t, f.instructionPath("acme", "a")))
	assert.NoFileExists(t, f.instructionPath("acme", "b"))
}

func TestUninstall_FailedRemovalKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.install(makePackage(t, "acme", "p", "1.0.0", map[string]string{
		"instruction/a": "a",
		"instruction/b": "b",
	}), conflict.StrategySkip)

	// A non-empty directory in place of the file cannot be removed.
	path := f.instructionPath("acme", "a")
	require.NoError(t, os.Remove(path))
	writeFile(t, filepath.Join(path, "child"), "x")

	report, err := f.engine.Uninstall(f.ctx, "acme", "p", UninstallOptions{})
	require.NoError(t, err)

	assert.True(t, report.Failed())
	assert.Equal(t, ActionFailed, actions(report)["instruction/a"])
	assert.Equal(t, ActionRemoved, actions(report)["instruction/b"])

	rec, ok := f.record("acme", "p")
	require.True(t, ok)
	require.Len(t, rec.Components, 1)
	assert.Equal(t, "a", rec.Components[0].Name)
}

func TestUninstall_UnknownPackage(t *testing.T) {
	f := newFixture(t)
	f.install(makePackage(t, "acme", "style-pack", "1.0.0", map[string]string{"instruction/a": "a"}), conflict.StrategySkip)

	_, err := f.engine.Uninstall(f.ctx, "acme", "style-pak", UninstallOptions{})
	var nie *NotInstalledError
	require.ErrorAs(t, err, &nie)
	assert.Equal(t, []string{"acme/style-pack"}, nie.Suggestions)
}
