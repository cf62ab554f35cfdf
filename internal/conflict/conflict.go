package conflict

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agentx-labs/aipkg/internal/platform"
)

// State classifies an existing target path.
type State string

const (
	StateAbsent       State = "absent"        // nothing at the path
	StateOwned        State = "owned"         // written by us and unchanged since
	StateForeign      State = "foreign"       // present but never written by us
	StateUserModified State = "user_modified" // written by us, then edited
)

// Conflicting reports whether the state needs a strategy decision.
func (s State) Conflicting() bool {
	return s == StateForeign || s == StateUserModified
}

// Strategy resolves foreign and user-modified conflicts.
type Strategy string

const (
	StrategySkip      Strategy = "skip"
	StrategyOverwrite Strategy = "overwrite"
	StrategyRename    Strategy = "rename"
)

// Strategies lists the valid strategies.
func Strategies() []Strategy {
	return []Strategy{StrategySkip, StrategyOverwrite, StrategyRename}
}

// ParseStrategy converts a string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid strategy %q: expected skip, overwrite or rename", s)
}

// Action is what Apply did with the proposed content.
type Action string

const (
	ActionWrote   Action = "wrote"
	ActionSkipped Action = "skipped"
	ActionRenamed Action = "renamed"
)

// Outcome describes a resolved write.
type Outcome struct {
	State  State
	Action Action
	// Path is where the content now lives: the target, or the alternate
	// path for a rename. For a skip it is the untouched target.
	Path string
	// Checksum is the checksum to record for Path. A skip keeps the
	// previously recorded value, which is empty for a foreign file.
	Checksum string
}

// maxRenameAttempts bounds the alternate path search.
const maxRenameAttempts = 1000

// Detect classifies the file at path. recorded is the checksum the ledger
// holds for path, or "" when no installed component owns it. The current
// checksum of the file is returned for anything but StateAbsent.
func Detect(path, recorded string) (State, string, error) {
	exists, err := platform.Exists(path)
	if err != nil {
		return "", "", fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return StateAbsent, "", nil
	}
	current, err := platform.FileChecksum(path)
	if err != nil {
		return "", "", err
	}
	switch {
	case recorded == "":
		return StateForeign, current, nil
	case recorded == current:
		return StateOwned, current, nil
	default:
		return StateUserModified, current, nil
	}
}

// Resolver applies one strategy to every write of an invocation.
type Resolver struct {
	strategy Strategy
}

// NewResolver returns a Resolver using strategy for conflicting writes.
func NewResolver(strategy Strategy) *Resolver {
	return &Resolver{strategy: strategy}
}

// Strategy returns the configured strategy.
func (r *Resolver) Strategy() Strategy { return r.strategy }

// Apply writes content to target according to the state of target and the
// configured strategy. Absent and owned targets are always written. Any I/O
// failure is returned as a *ComponentWriteError.
func (r *Resolver) Apply(target string, content []byte, perm os.FileMode, recorded string) (Outcome, error) {
	state, _, err := Detect(target, recorded)
	if err != nil {
		return Outcome{Path: target}, &ComponentWriteError{Path: target, Op: "detect", Err: err}
	}

	sum := platform.Checksum(content)
	if !state.Conflicting() || r.strategy == StrategyOverwrite {
		if err := platform.WriteFileAtomic(target, content, perm); err != nil {
			return Outcome{State: state, Path: target}, &ComponentWriteError{Path: target, Op: "write", Err: err}
		}
		return Outcome{State: state, Action: ActionWrote, Path: target, Checksum: sum}, nil
	}

	switch r.strategy {
	case StrategyRename:
		path, err := writeAlternate(target, content, perm)
		if err != nil {
			return Outcome{State: state, Path: target}, &ComponentWriteError{Path: target, Op: "rename", Err: err}
		}
		return Outcome{State: state, Action: ActionRenamed, Path: path, Checksum: sum}, nil
	default:
		return Outcome{State: state, Action: ActionSkipped, Path: target, Checksum: recorded}, nil
	}
}

// writeAlternate claims the lowest free name-N.ext sibling of target with an
// exclusive create.
func writeAlternate(target string, content []byte, perm os.FileMode) (string, error) {
	for n := 2; n < maxRenameAttempts; n++ {
		path := AlternatePath(target, n)
		err := platform.CreateExclusive(path, content, perm)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free alternate name for %s after %d attempts", target, maxRenameAttempts)
}

// AlternatePath inserts "-n" before the first extension of the base name:
// "rules/style.instructions.md" becomes "rules/style-2.instructions.md".
// A leading dot is part of the name, not an extension.
func AlternatePath(path string, n int) string {
	dir, base := filepath.Split(path)
	stem, ext := base, ""
	if len(base) > 1 {
		if i := strings.Index(base[1:], "."); i >= 0 {
			stem, ext = base[:i+1], base[i+1:]
		}
	}
	return dir + stem + "-" + strconv.Itoa(n) + ext
}
