package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"
)

// ManifestFiles lists the manifest file names probed in a package root, in
// order of preference.
var ManifestFiles = []string{
	"aipkg.yaml",
	"aipkg.yml",
	"aipkg.json",
	"aipkg.toml",
	"manifest.yaml",
}

// FindManifest returns the path of the first manifest file present in dir.
func FindManifest(dir string) (string, error) {
	for _, name := range ManifestFiles {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrManifestNotFound, dir, strings.Join(ManifestFiles, ", "))
}

// Load locates the manifest in dir, validates it and returns the package.
// Invalid manifests produce a *SchemaError listing every violation.
func Load(dir string) (*Package, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving package root %s: %w", dir, err)
	}
	path, err := FindManifest(root)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile parses and validates a specific manifest file. The package root
// is the directory containing it.
func LoadFile(path string) (*Package, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(path)

	doc, err := decode(path, data)
	if err != nil {
		return nil, &SchemaError{Manifest: path, Violations: []Violation{{Message: err.Error(), Keyword: "syntax"}}}
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return nil, &SchemaError{Manifest: path, Violations: []Violation{{Message: "manifest must be a mapping", Keyword: "type"}}}
	}

	violations, err := validateStructure(doc)
	if err != nil {
		return nil, err
	}

	m, decodeErr := toManifest(doc)
	if decodeErr != nil && len(violations) == 0 {
		violations = append(violations, Violation{Message: decodeErr.Error(), Keyword: "type"})
	}
	violations = append(violations, checkSemantics(root, m)...)

	if len(violations) > 0 {
		return nil, &SchemaError{Manifest: path, Violations: violations}
	}
	return newPackage(root, path, *m), nil
}

// decode reads the document into generic JSON-compatible values.
func decode(path string, data []byte) (interface{}, error) {
	var raw interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}
	return normalize(raw), nil
}

// toManifest converts the generic document into the typed manifest. On a
// type mismatch the offending field is left zero and the rest is still
// filled in.
func toManifest(doc interface{}) (*Manifest, error) {
	var m Manifest
	data, err := json.Marshal(doc)
	if err != nil {
		return &m, fmt.Errorf("converting to JSON: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return &m, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// normalize recursively converts decoded values to JSON-compatible types.
// YAML mappings with non-string keys come back as map[interface{}]interface{}.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[k] = normalize(v)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalize(v)
		}
		return m
	case []interface{}:
		a := make([]interface{}, len(val))
		for i, v := range val {
			a[i] = normalize(v)
		}
		return a
	default:
		return val
	}
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
