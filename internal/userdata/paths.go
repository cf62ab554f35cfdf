package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/aipkg/internal/branding"
	"github.com/agentx-labs/aipkg/internal/ledger"
)

// Directory and file name constants.
const (
	LedgerFile = "installed.json"
	CacheDir   = "cache"
)

// GetHomeRoot returns the tool's own directory (~/.aipkg).
// It checks the AIPKG_HOME environment variable first.
func GetHomeRoot() (string, error) {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.HomeDir()), nil
}

// GetGlobalRoot returns the directory global-scope components are installed
// under, the user's home directory unless AIPKG_GLOBAL_ROOT is set.
func GetGlobalRoot() (string, error) {
	if v := os.Getenv(branding.EnvVar("GLOBAL_ROOT")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return home, nil
}

// GetCacheRoot returns the directory remote sources are cloned into.
func GetCacheRoot() (string, error) {
	root, err := GetHomeRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, CacheDir), nil
}

// ScopeRoot returns the directory components of the given scope are
// installed under. projectDir is only used for the project scope.
func ScopeRoot(scope ledger.Scope, projectDir string) (string, error) {
	switch scope {
	case ledger.ScopeProject:
		if projectDir == "" {
			return "", fmt.Errorf("project scope requires a project directory")
		}
		return filepath.Abs(projectDir)
	case ledger.ScopeGlobal:
		return GetGlobalRoot()
	default:
		return "", fmt.Errorf("unknown scope %q", scope)
	}
}

// LedgerPath returns the ledger file for a scope:
// <project>/.aipkg/installed.json or ~/.aipkg/installed.json.
func LedgerPath(scope ledger.Scope, projectDir string) (string, error) {
	switch scope {
	case ledger.ScopeProject:
		root, err := ScopeRoot(scope, projectDir)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, branding.HomeDir(), LedgerFile), nil
	case ledger.ScopeGlobal:
		root, err := GetHomeRoot()
		if err != nil {
			return "", err
		}
		return filepath.Join(root, LedgerFile), nil
	default:
		return "", fmt.Errorf("unknown scope %q", scope)
	}
}
