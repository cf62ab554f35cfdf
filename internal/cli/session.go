package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentx-labs/aipkg/internal/branding"
	"github.com/agentx-labs/aipkg/internal/config"
	"github.com/agentx-labs/aipkg/internal/conflict"
	"github.com/agentx-labs/aipkg/internal/engine"
	"github.com/agentx-labs/aipkg/internal/integrations"
	"github.com/agentx-labs/aipkg/internal/ledger"
	"github.com/agentx-labs/aipkg/internal/logging"
	"github.com/agentx-labs/aipkg/internal/manifest"
	"github.com/agentx-labs/aipkg/internal/source"
	"github.com/agentx-labs/aipkg/internal/userdata"
)

// errComponentsFailed makes the process exit nonzero after a report with
// failures has already been printed.
var errComponentsFailed = errors.New("one or more components failed")

// session bundles everything a command needs to operate on one scope.
type session struct {
	settings config.Settings
	scope    ledger.Scope
	root     string
	engine   *engine.Engine
}

// openSession resolves the scope (flag first, then config) and wires the
// ledger, translator and engine for it.
func openSession(scopeFlag string) (*session, error) {
	settings := config.Current()
	scope, err := ledger.ParseScope(firstNonEmpty(scopeFlag, settings.Scope))
	if err != nil {
		return nil, err
	}
	root, err := userdata.ScopeRoot(scope, projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s scope root: %w", scope, err)
	}
	path, err := userdata.LedgerPath(scope, projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s ledger: %w", scope, err)
	}

	l := ledger.New(path, scope,
		ledger.WithLockTimeout(settings.LockTimeout),
		ledger.WithLogger(logging.GetLogger("ledger")),
	)
	eng := engine.New(l, integrations.NewTranslator(root), engine.WithLogger(logging.GetLogger("engine")))
	return &session{settings: settings, scope: scope, root: root, engine: eng}, nil
}

// repairHint points at the repair command when err comes from a corrupt
// ledger.
func (s *session) repairHint(err error) error {
	if err == nil || !ledger.IsCorrupt(err) {
		return err
	}
	return fmt.Errorf("%w\nrun `%s repair --scope %s` to reset it (the current file is kept as a backup)",
		err, branding.CLIName(), s.scope)
}

// loadPackage fetches spec and parses the manifest it contains.
func (s *session) loadPackage(ctx context.Context, spec source.Spec) (*manifest.Package, error) {
	cacheDir := s.settings.CacheDir
	if cacheDir == "" {
		var err error
		if cacheDir, err = userdata.GetCacheRoot(); err != nil {
			return nil, err
		}
	}
	dir, err := source.NewResolver(cacheDir, logging.GetLogger("source")).Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}
	pkg, err := manifest.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading package from %s: %w", spec, err)
	}
	return pkg, nil
}

func (s *session) strategy(flag string, force bool) (conflict.Strategy, error) {
	if force {
		if flag != "" && flag != string(conflict.StrategyOverwrite) {
			return "", fmt.Errorf("--force conflicts with --strategy %s", flag)
		}
		return conflict.StrategyOverwrite, nil
	}
	return conflict.ParseStrategy(firstNonEmpty(flag, s.settings.Strategy))
}

func (s *session) ide(flag string) (integrations.ToolName, error) {
	name := firstNonEmpty(flag, s.settings.IDE)
	tool, ok := integrations.ParseToolName(name)
	if !ok {
		return "", fmt.Errorf("unknown IDE %q: expected one of %s", name, joinTools(integrations.AllTools()))
	}
	return tool, nil
}

func parseTypes(names []string) ([]manifest.ComponentType, error) {
	var types []manifest.ComponentType
	for _, n := range names {
		t, ok := manifest.ParseComponentType(n)
		if !ok {
			return nil, fmt.Errorf("unknown component type %q", n)
		}
		types = append(types, t)
	}
	return types, nil
}

func joinTools(tools []integrations.ToolName) string {
	s := ""
	for i, t := range tools {
		if i > 0 {
			s += ", "
		}
		s += string(t)
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
