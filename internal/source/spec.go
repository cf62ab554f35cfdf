package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the type of a package source.
type Kind string

const (
	KindLocal Kind = "local"
	KindGit   Kind = "git"
)

// Spec is a parsed source reference.
type Spec struct {
	Raw      string
	Kind     Kind
	Location string // absolute directory for local sources, clone URL for git
	Ref      string // branch, tag or commit; git only
}

// String renders the spec in the form ParseSpec accepts. It is what the
// ledger stores so a later update can resolve the same source again.
func (s Spec) String() string {
	if s.Kind == KindGit && s.Ref != "" {
		return s.Location + "#" + s.Ref
	}
	return s.Location
}

// ParseSpec parses a source argument. Supported forms:
//   - Local: "./path", "../path", "/absolute/path", "path"
//   - Git:   "https://host/user/repo", "git@host:user/repo.git",
//     "github.com/user/repo", any of them with a "#ref" suffix
//
// A non-empty ref overrides the "#ref" suffix.
func ParseSpec(raw, ref string) (Spec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spec{}, &SourceError{Source: raw, Err: fmt.Errorf("empty source")}
	}

	if !isLocalPath(raw) && isGitURL(raw) {
		location, fragment, _ := strings.Cut(raw, "#")
		if ref == "" {
			ref = fragment
		}
		if knownHost(location) && !strings.Contains(location, "://") && !strings.HasPrefix(location, "git@") {
			location = "https://" + location
		}
		return Spec{Raw: raw, Kind: KindGit, Location: location, Ref: ref}, nil
	}

	if ref != "" {
		return Spec{}, &SourceError{Source: raw, Err: fmt.Errorf("a ref only applies to git sources")}
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return Spec{}, &SourceError{Source: raw, Err: err}
	}
	return Spec{Raw: raw, Kind: KindLocal, Location: abs}, nil
}

// isLocalPath reports whether s names a filesystem path: explicitly
// relative or absolute, or an existing directory such as "pack.git".
func isLocalPath(s string) bool {
	if strings.HasPrefix(s, ".") || strings.HasPrefix(s, "/") || filepath.IsAbs(s) {
		return true
	}
	info, err := os.Stat(s)
	return err == nil && info.IsDir()
}

// isGitURL detects if a string looks like a git repository URL.
func isGitURL(s string) bool {
	if strings.Contains(s, "://") || strings.HasPrefix(s, "git@") {
		return true
	}
	location, _, _ := strings.Cut(s, "#")
	return strings.HasSuffix(location, ".git") || knownHost(location)
}

func knownHost(s string) bool {
	for _, host := range []string{"github.com/", "gitlab.com/", "bitbucket.org/"} {
		if strings.HasPrefix(s, host) {
			return true
		}
	}
	return false
}
