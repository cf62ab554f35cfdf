package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/agentx-labs/aipkg/internal/ledger"
)

// ErrNotInstalled matches a NotInstalledError.
var ErrNotInstalled = errors.New("package not installed")

// NotInstalledError is returned for a package key with no ledger record.
type NotInstalledError struct {
	Key         ledger.Key
	Suggestions []string
}

func (e *NotInstalledError) Error() string {
	msg := fmt.Sprintf("%s is not installed in %s scope", e.Key, e.Key.Scope)
	if len(e.Suggestions) > 0 {
		msg += "; did you mean " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}

func (e *NotInstalledError) Is(target error) bool { return target == ErrNotInstalled }

// IDEMismatchError is returned when a package is reinstalled for a
// different IDE than the one recorded in its scope.
type IDEMismatchError struct {
	Key       ledger.Key
	Installed string
	Requested string
}

func (e *IDEMismatchError) Error() string {
	return fmt.Sprintf("%s is installed for %s in %s scope; uninstall it before installing for %s",
		e.Key, e.Installed, e.Key.Scope, e.Requested)
}

const maxSuggestions = 3

func notInstalled(tx *ledger.Tx, key ledger.Key) error {
	var names []string
	for _, r := range tx.List() {
		names = append(names, r.Key().String())
	}
	var suggestions []string
	for _, m := range fuzzy.Find(key.String(), names) {
		suggestions = append(suggestions, m.Str)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	if len(suggestions) == 0 {
		// Fall back to packages sharing the name.
		for _, n := range names {
			if strings.HasSuffix(n, "/"+key.Name) {
				suggestions = append(suggestions, n)
			}
		}
	}
	return &NotInstalledError{Key: key, Suggestions: suggestions}
}
