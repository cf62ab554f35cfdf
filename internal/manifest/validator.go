package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agentx-labs/aipkg/internal/platform"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("manifest.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("manifest.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ValidateDir locates and fully validates the manifest in dir without
// building a Package. A nil slice means the manifest is valid. The error
// return is for a missing manifest or schema compilation failures.
func ValidateDir(dir string) ([]Violation, error) {
	_, err := Load(dir)
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Violations, nil
	}
	return nil, err
}

// validateStructure checks a decoded document against the embedded schema.
func validateStructure(doc interface{}) ([]Violation, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return []Violation{{Message: fmt.Sprintf("manifest is not representable as JSON: %v", err), Keyword: "type"}}, nil
	}
	// Re-read with json.Number support for the schema validator.
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return extractIssues(ve), nil
}

// extractIssues walks the ValidationError tree and returns leaf-level issues.
func extractIssues(ve *jsonschema.ValidationError) []Violation {
	var issues []Violation
	collectValidationIssues(ve, &issues)

	if len(issues) == 0 {
		return []Violation{{Message: ve.Error()}}
	}
	return deduplicateIssues(issues)
}

// collectValidationIssues recursively walks the error tree to find leaf errors
// with specific property information.
func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]Violation) {
	if len(ve.Causes) == 0 {
		path := ""
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}

		keyword := ""
		msg := ""
		if ve.ErrorKind != nil {
			if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
				keyword = kwPath[len(kwPath)-1]
			}
			msg = ve.ErrorKind.LocalizedString(printer)
		}

		// Container errors carry no detail of their own.
		if keyword == "allOf" || keyword == "$ref" || keyword == "" {
			return
		}

		*issues = append(*issues, Violation{
			Path:    path,
			Message: msg,
			Keyword: keyword,
		})
		return
	}

	for _, cause := range ve.Causes {
		collectValidationIssues(cause, issues)
	}
}

// deduplicateIssues removes duplicate issues (same path + keyword + message).
func deduplicateIssues(issues []Violation) []Violation {
	seen := make(map[string]bool)
	var result []Violation
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}

// ParseVersion parses a package version, tolerating a leading "v".
func ParseVersion(v string) (*semver.Version, error) {
	return semver.StrictNewVersion(strings.TrimPrefix(v, "v"))
}

// checkSemantics runs the checks the schema cannot express: version syntax,
// file existence and containment, name uniqueness and resource integrity.
// Fields left empty by a failed decode are skipped since the structural
// pass already reported them.
func checkSemantics(root string, m *Manifest) []Violation {
	var vs []Violation
	add := func(path, keyword, format string, args ...interface{}) {
		vs = append(vs, Violation{Path: path, Keyword: keyword, Message: fmt.Sprintf(format, args...)})
	}

	if m.Version != "" {
		if _, err := ParseVersion(m.Version); err != nil {
			add("/version", "semver", "%q is not a valid semantic version", m.Version)
		}
	}

	for _, t := range ComponentTypes() {
		seen := make(map[string]int)
		for i, c := range m.Components.Of(t) {
			base := fmt.Sprintf("/components/%s/%d", t.Section(), i)

			if c.Name != "" {
				if first, dup := seen[c.Name]; dup {
					add(base+"/name", "unique", "duplicate %s name %q (first declared at index %d)", t, c.Name, first)
				} else {
					seen[c.Name] = i
				}
			}

			if t == TypeMCPServer {
				creds := make(map[string]bool)
				for j, cred := range c.Credentials {
					if cred.Name == "" {
						continue
					}
					if creds[cred.Name] {
						add(fmt.Sprintf("%s/credentials/%d/name", base, j), "unique", "duplicate credential %q", cred.Name)
					}
					creds[cred.Name] = true
				}
			}

			if c.File == "" {
				continue
			}
			full, err := resolveFile(root, c.File)
			if err != nil {
				add(base+"/file", "file", "%v", err)
				continue
			}
			info, err := os.Stat(full)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				add(base+"/file", "file", "file %q does not exist", c.File)
				continue
			case err != nil:
				add(base+"/file", "file", "cannot read file %q: %v", c.File, err)
				continue
			case info.IsDir():
				add(base+"/file", "file", "file %q is a directory", c.File)
				continue
			}

			if t != TypeResource {
				continue
			}
			if c.Size > 0 && info.Size() != c.Size {
				add(base+"/size", "size", "file %q is %d bytes, manifest declares %d", c.File, info.Size(), c.Size)
			}
			if c.Checksum != "" {
				sum, err := platform.FileChecksum(full)
				if err != nil {
					add(base+"/checksum", "checksum", "cannot checksum %q: %v", c.File, err)
				} else if sum != c.Checksum {
					add(base+"/checksum", "checksum", "file %q has checksum %s, manifest declares %s", c.File, sum, c.Checksum)
				}
			}
		}
	}
	return vs
}

// resolveFile joins a manifest-relative path onto root, rejecting absolute
// paths and paths that climb out of the package.
func resolveFile(root, rel string) (string, error) {
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("file %q must be relative to the package root", rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file %q escapes the package root", rel)
	}
	return filepath.Join(root, clean), nil
}
