package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentx-labs/aipkg/internal/platform"
)

// Resolver materializes a source as a local directory.
type Resolver interface {
	Resolve(ctx context.Context, spec Spec) (string, error)
}

// LocalResolver serves local directories in place.
type LocalResolver struct{}

// Resolve checks that the directory exists and returns it.
func (LocalResolver) Resolve(ctx context.Context, spec Spec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(spec.Location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &SourceError{Source: spec.String(), Err: fmt.Errorf("directory does not exist: %w", err)}
		}
		return "", &SourceError{Source: spec.String(), Err: err}
	}
	if !info.IsDir() {
		return "", &SourceError{Source: spec.String(), Err: fmt.Errorf("not a directory")}
	}
	return spec.Location, nil
}

// GitResolver clones repositories into a cache directory. Every Resolve
// starts from a fresh clone so the checkout matches the remote.
type GitResolver struct {
	cacheDir string
	git      string
	log      zerolog.Logger
}

// NewGitResolver returns a resolver cloning below cacheDir.
func NewGitResolver(cacheDir string, logger zerolog.Logger) *GitResolver {
	return &GitResolver{cacheDir: cacheDir, git: "git", log: logger}
}

// Resolve clones spec and returns the checkout directory.
func (g *GitResolver) Resolve(ctx context.Context, spec Spec) (string, error) {
	if spec.Kind != KindGit {
		return "", &SourceError{Source: spec.String(), Err: fmt.Errorf("not a git source")}
	}
	if _, err := exec.LookPath(g.git); err != nil {
		return "", &SourceError{Source: spec.String(), Err: fmt.Errorf("git is required for remote sources: %w", err)}
	}

	dest := g.checkoutDir(spec)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("clearing %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), platform.DirPerm); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	g.log.Debug().Str("url", spec.Location).Str("ref", spec.Ref).Str("dest", dest).Msg("Cloning source")
	if err := g.clone(ctx, spec, dest); err != nil {
		_ = os.RemoveAll(dest)
		return "", &SourceError{Source: spec.String(), Err: err}
	}
	g.log.Info().Str("source", spec.String()).Str("revision", g.headRef(ctx, dest)).Msg("Source cloned")
	return dest, nil
}

func (g *GitResolver) clone(ctx context.Context, spec Spec, dest string) error {
	if spec.Ref == "" {
		return g.run(ctx, "clone", "--depth", "1", "--quiet", spec.Location, dest)
	}
	if err := g.run(ctx, "clone", "--depth", "1", "--quiet", "--branch", spec.Ref, spec.Location, dest); err == nil {
		return nil
	}
	// --branch only takes branch and tag names; fall back to a full clone
	// for commit ids.
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	if err := g.run(ctx, "clone", "--quiet", spec.Location, dest); err != nil {
		return err
	}
	return g.run(ctx, "-C", dest, "checkout", "--quiet", "--detach", spec.Ref)
}

func (g *GitResolver) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, g.git, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// headRef returns the short HEAD commit hash for a repository.
func (g *GitResolver) headRef(ctx context.Context, repoDir string) string {
	out, err := exec.CommandContext(ctx, g.git, "-C", repoDir, "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// checkoutDir is <cache>/git/<repo>-<hash of url and ref>.
func (g *GitResolver) checkoutDir(spec Spec) string {
	name := strings.TrimSuffix(filepath.Base(strings.TrimSuffix(spec.Location, "/")), ".git")
	name = unsafeChars.ReplaceAllString(name, "_")
	sum := strings.TrimPrefix(platform.Checksum([]byte(spec.String())), platform.ChecksumPrefix)
	return filepath.Join(g.cacheDir, "git", name+"-"+sum[:12])
}

// Dispatcher routes a spec to the resolver for its kind.
type Dispatcher struct {
	local Resolver
	git   Resolver
}

// NewResolver returns the default resolver: local directories in place,
// git sources cloned below cacheDir.
func NewResolver(cacheDir string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{local: LocalResolver{}, git: NewGitResolver(cacheDir, logger)}
}

// Resolve dispatches on spec.Kind.
func (d *Dispatcher) Resolve(ctx context.Context, spec Spec) (string, error) {
	switch spec.Kind {
	case KindLocal:
		return d.local.Resolve(ctx, spec)
	case KindGit:
		return d.git.Resolve(ctx, spec)
	default:
		return "", &SourceError{Source: spec.Raw, Err: fmt.Errorf("unknown source kind %q", spec.Kind)}
	}
}
