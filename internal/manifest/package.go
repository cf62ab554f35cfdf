package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// Package is a validated manifest bound to the directory it was loaded from.
// It is immutable: accessors return copies.
type Package struct {
	m            Manifest
	root         string
	manifestPath string
	components   []Component
}

func newPackage(root, manifestPath string, m Manifest) *Package {
	p := &Package{m: m, root: root, manifestPath: manifestPath}
	for _, t := range ComponentTypes() {
		for _, c := range m.Components.Of(t) {
			c = c.clone()
			c.Type = t
			p.components = append(p.components, c)
		}
	}
	p.m.Components = Components{}
	return p
}

func (p *Package) Name() string        { return p.m.Name }
func (p *Package) Namespace() string   { return p.m.Namespace }
func (p *Package) Version() string     { return p.m.Version }
func (p *Package) Description() string { return p.m.Description }
func (p *Package) Author() string      { return p.m.Author }
func (p *Package) License() string     { return p.m.License }

// Root is the absolute package root directory.
func (p *Package) Root() string { return p.root }

// ManifestPath is the manifest file the package was loaded from.
func (p *Package) ManifestPath() string { return p.manifestPath }

// ID returns "namespace/name".
func (p *Package) ID() string { return p.m.Namespace + "/" + p.m.Name }

// Components returns every component in install order: instructions, MCP
// servers, hooks, commands, resources, each in declaration order.
func (p *Package) Components() []Component {
	out := make([]Component, len(p.components))
	for i, c := range p.components {
		out[i] = c.clone()
	}
	return out
}

// ComponentsOf returns the components of one type in declaration order.
func (p *Package) ComponentsOf(t ComponentType) []Component {
	var out []Component
	for _, c := range p.components {
		if c.Type == t {
			out = append(out, c.clone())
		}
	}
	return out
}

// Component looks up a component by type and name.
func (p *Package) Component(t ComponentType, name string) (Component, bool) {
	for _, c := range p.components {
		if c.Type == t && c.Name == name {
			return c.clone(), true
		}
	}
	return Component{}, false
}

// SourcePath returns the absolute path of a component's source file.
func (p *Package) SourcePath(c Component) string {
	return filepath.Join(p.root, filepath.Clean(filepath.FromSlash(c.File)))
}

// ReadSource reads a component's source file.
func (p *Package) ReadSource(c Component) ([]byte, error) {
	data, err := os.ReadFile(p.SourcePath(c))
	if err != nil {
		return nil, fmt.Errorf("reading %s source: %w", c.ID(), err)
	}
	return data, nil
}
