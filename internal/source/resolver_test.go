package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLocalResolver(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LocalResolver{}.Resolve(context.Background(), Spec{Kind: KindLocal, Location: dir})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != dir {
		t.Errorf("Resolve = %q, want %q", got, dir)
	}

	_, err = LocalResolver{}.Resolve(context.Background(), Spec{Kind: KindLocal, Location: filepath.Join(dir, "missing")})
	var se *SourceError
	if !errors.As(err, &se) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing dir error = %v, want *SourceError wrapping fs.ErrNotExist", err)
	}

	_, err = LocalResolver{}.Resolve(context.Background(), Spec{Kind: KindLocal, Location: file})
	if !errors.As(err, &se) {
		t.Errorf("file error = %v, want *SourceError", err)
	}
}

// setupRepo creates a local git repo with a tagged commit followed by a
// second commit, and returns its path and the first commit id.
func setupRepo(t *testing.T) (string, string) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	work := filepath.Join(t.TempDir(), "style-pack")
	git := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", work}, args...)...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v: %s: %v", args, out, err)
		}
		return strings.TrimSpace(string(out))
	}

	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	git("init", "--quiet")
	git("config", "user.email", "test@test.com")
	git("config", "user.name", "Test")

	write := func(content string) {
		if err := os.WriteFile(filepath.Join(work, "VERSION"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("1.0.0")
	git("add", ".")
	git("commit", "--quiet", "-m", "v1")
	git("tag", "v1.0.0")
	first := git("rev-parse", "HEAD")

	write("2.0.0")
	git("commit", "--quiet", "-am", "v2")

	return work, first
}

func readVersion(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "VERSION"))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestGitResolver_Refs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping git test in short mode")
	}

	repo, first := setupRepo(t)

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"head", "", "2.0.0"},
		{"tag", "v1.0.0", "1.0.0"},
		{"commit", first, "1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewGitResolver(t.TempDir(), zerolog.Nop())
			dir, err := r.Resolve(context.Background(), Spec{Kind: KindGit, Location: repo, Ref: tt.ref})
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if got := readVersion(t, dir); got != tt.want {
				t.Errorf("VERSION = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGitResolver_ReclonesOnEachResolve(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping git test in short mode")
	}

	repo, _ := setupRepo(t)
	r := NewGitResolver(t.TempDir(), zerolog.Nop())
	spec := Spec{Kind: KindGit, Location: repo}

	dir, err := r.Resolve(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stray"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	again, err := r.Resolve(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if again != dir {
		t.Errorf("checkout dir changed: %q then %q", dir, again)
	}
	if _, err := os.Stat(filepath.Join(again, "stray")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("stale file survived a re-resolve")
	}
}

func TestGitResolver_MissingRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	r := NewGitResolver(t.TempDir(), zerolog.Nop())
	_, err := r.Resolve(context.Background(), Spec{Kind: KindGit, Location: filepath.Join(t.TempDir(), "nope")})
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SourceError", err)
	}
}

func TestDispatcher_RoutesByKind(t *testing.T) {
	d := NewResolver(t.TempDir(), zerolog.Nop())
	dir := t.TempDir()

	got, err := d.Resolve(context.Background(), Spec{Kind: KindLocal, Location: dir})
	if err != nil || got != dir {
		t.Fatalf("Resolve(local) = %q, %v; want %q", got, err, dir)
	}

	_, err = d.Resolve(context.Background(), Spec{Kind: "svn", Raw: "svn://x"})
	var se *SourceError
	if !errors.As(err, &se) {
		t.Errorf("unknown kind error = %v, want *SourceError", err)
	}
}
