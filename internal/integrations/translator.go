package integrations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/agentx-labs/aipkg/internal/manifest"
)

// Rendered is a component ready to be written.
type Rendered struct {
	Path    string
	Content []byte
	Mode    os.FileMode
}

// Translator turns a package component into the file a tool expects.
type Translator interface {
	Translate(pkg *manifest.Package, c manifest.Component, tool ToolName) (Rendered, error)
	Supports(tool ToolName, t manifest.ComponentType) bool
}

// DefaultTranslator renders components below a scope root (a project
// directory or the user's home).
type DefaultTranslator struct {
	root string
}

var _ Translator = (*DefaultTranslator)(nil)

// NewTranslator returns the default translator writing below root.
func NewTranslator(root string) *DefaultTranslator {
	return &DefaultTranslator{root: root}
}

// Root returns the scope root the translator writes below.
func (d *DefaultTranslator) Root() string { return d.root }

// Supports reports whether tool accepts components of type t.
func (d *DefaultTranslator) Supports(tool ToolName, t manifest.ComponentType) bool {
	return Supports(tool, t)
}

// TargetPath returns <root>/<tool dir>/<type dir>/<namespace>/<name><ext>.
// It depends only on its arguments, so a component always lands in the
// same place and packages in different namespaces never collide.
func (d *DefaultTranslator) TargetPath(tool ToolName, c manifest.Component, namespace string) (string, error) {
	layout, ok := layoutFor(tool, c.Type)
	if !ok {
		return "", fmt.Errorf("%s does not support %s components", tool, c.Type)
	}
	for _, seg := range []string{namespace, c.Name} {
		if err := checkSegment(seg); err != nil {
			return "", err
		}
	}
	ext := layout.Ext
	if ext == "" {
		ext = sourceExt(c.File)
	}
	return filepath.Join(d.root, toolRegistry[tool].Root, filepath.FromSlash(layout.Dir), namespace, c.Name+ext), nil
}

// Translate resolves the target path and renders the content of c.
func (d *DefaultTranslator) Translate(pkg *manifest.Package, c manifest.Component, tool ToolName) (Rendered, error) {
	path, err := d.TargetPath(tool, c, pkg.Namespace())
	if err != nil {
		return Rendered{}, err
	}
	src, err := pkg.ReadSource(c)
	if err != nil {
		return Rendered{}, err
	}

	content := src
	switch {
	case c.Type == manifest.TypeMCPServer:
		content, err = renderMCPServer(pkg.Namespace(), c.Name, src)
	case c.Type == manifest.TypeInstruction && tool == Cursor:
		content, err = withFrontMatter(src, cursorRule{Description: c.Description, AlwaysApply: true})
	case c.Type == manifest.TypeInstruction && tool == Copilot:
		content, err = withFrontMatter(src, copilotInstruction{ApplyTo: "**"})
	}
	if err != nil {
		return Rendered{}, fmt.Errorf("rendering %s for %s: %w", c.ID(), tool, err)
	}

	layout, _ := layoutFor(tool, c.Type)
	return Rendered{Path: path, Content: content, Mode: layout.Mode}, nil
}

// checkSegment rejects names that would not stay a single path element.
func checkSegment(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid path segment %q", s)
	}
	return nil
}

// sourceExt returns everything from the first dot of the base name, so
// "data.tar.gz" keeps ".tar.gz". A leading dot does not start an extension.
func sourceExt(file string) string {
	base := filepath.Base(filepath.FromSlash(file))
	if len(base) < 2 {
		return ""
	}
	if i := strings.Index(base[1:], "."); i >= 0 {
		return base[i+1:]
	}
	return ""
}

type cursorRule struct {
	Description string `yaml:"description"`
	Globs       string `yaml:"globs"`
	AlwaysApply bool   `yaml:"alwaysApply"`
}

type copilotInstruction struct {
	ApplyTo string `yaml:"applyTo"`
}

// withFrontMatter prefixes body with a YAML front matter block unless it
// already starts with one.
func withFrontMatter(body []byte, meta interface{}) ([]byte, error) {
	if bytes.HasPrefix(body, []byte("---\n")) || bytes.HasPrefix(body, []byte("---\r\n")) {
		return body, nil
	}
	header, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling front matter: %w", err)
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n")
	b.Write(body)
	return b.Bytes(), nil
}

// renderMCPServer normalizes a YAML or JSON server definition into
// {"mcpServers": {"<namespace>.<name>": {...}}}. A source that already
// wraps a single server in mcpServers is unwrapped first.
func renderMCPServer(namespace, name string, src []byte) ([]byte, error) {
	var raw interface{}
	if err := json.Unmarshal(src, &raw); err != nil {
		raw = nil
		if err := yaml.Unmarshal(src, &raw); err != nil {
			return nil, fmt.Errorf("parsing MCP server definition: %w", err)
		}
	}
	server, ok := normalize(raw).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("MCP server definition must be a mapping")
	}
	if wrapped, ok := server["mcpServers"].(map[string]interface{}); ok && len(server) == 1 {
		if len(wrapped) != 1 {
			return nil, fmt.Errorf("mcpServers must define exactly one server, found %d", len(wrapped))
		}
		for _, v := range wrapped {
			if server, ok = v.(map[string]interface{}); !ok {
				return nil, fmt.Errorf("MCP server definition must be a mapping")
			}
		}
	}

	doc := map[string]interface{}{
		"mcpServers": map[string]interface{}{
			namespace + "." + name: server,
		},
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding MCP server JSON: %w", err)
	}
	return append(out, '\n'), nil
}

// normalize converts YAML mappings with non-string keys into JSON objects.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, e := range val {
			val[k] = normalize(e)
		}
		return val
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, e := range val {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []interface{}:
		for i, e := range val {
			val[i] = normalize(e)
		}
		return val
	default:
		return val
	}
}
