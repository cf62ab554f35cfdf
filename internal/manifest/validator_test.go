package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/agentx-labs/aipkg/internal/platform"
)

func violationPaths(vs []Violation) map[string]bool {
	paths := make(map[string]bool, len(vs))
	for _, v := range vs {
		paths[v.Path] = true
	}
	return paths
}

func TestLoad_CollectsAllViolations(t *testing.T) {
	_, err := Load(testPath("invalid-pack"))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}

	paths := violationPaths(se.Violations)
	want := []string{
		"/name",                                   // pattern
		"/version",                                // not semver
		"/components/instructions/1/name",         // duplicate
		"/components/instructions/1/file",         // missing
		"/components/instructions/2/file",         // escapes root
		"/components/hooks/0/hook_type",           // enum
		"/components/commands/0",                  // command_type required
		"/components/mcp_servers/0/credentials/0", // credential name required
	}
	for _, p := range want {
		if !paths[p] {
			t.Errorf("missing violation at %s", p)
		}
	}
	if t.Failed() {
		for _, v := range se.Violations {
			t.Logf("  %s [%s]", v, v.Keyword)
		}
	}

	if !strings.Contains(se.Error(), "invalid-pack") {
		t.Errorf("Error() = %q, want manifest path", se.Error())
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	root := writePackage(t, map[string]string{
		"aipkg.yaml": "description: nothing else\n",
	})

	violations, err := ValidateDir(root)
	if err != nil {
		t.Fatalf("ValidateDir error: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("expected violations for missing name, namespace and version")
	}
	msg := ""
	for _, v := range violations {
		msg += v.Message + "\n"
	}
	for _, field := range []string{"name", "namespace", "version"} {
		if !strings.Contains(msg, field) {
			t.Errorf("violations do not mention %q:\n%s", field, msg)
		}
	}
}

func TestLoad_VersionWrongType(t *testing.T) {
	root := writePackage(t, map[string]string{
		"aipkg.yaml": "name: p\nnamespace: n\nversion: 1.0\n",
	})

	violations, err := ValidateDir(root)
	if err != nil {
		t.Fatalf("ValidateDir error: %v", err)
	}
	if !violationPaths(violations)["/version"] {
		t.Errorf("violations = %v, want one at /version", violations)
	}
}

func TestLoad_UnknownComponentSection(t *testing.T) {
	root := writePackage(t, map[string]string{
		"aipkg.yaml": "name: p\nnamespace: n\nversion: 1.0.0\ncomponents:\n  skills: []\n",
	})

	violations, err := ValidateDir(root)
	if err != nil {
		t.Fatalf("ValidateDir error: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("expected a violation for unknown section skills")
	}
}

func TestLoad_ResourceIntegrity(t *testing.T) {
	content := "resource body\n"
	good := platform.Checksum([]byte(content))
	bad := platform.Checksum([]byte("something else"))

	tests := []struct {
		name     string
		checksum string
		size     string
		wantPath string
	}{
		{"match", good, "14", ""},
		{"checksum mismatch", bad, "", "/components/resources/0/checksum"},
		{"size mismatch", "", "99", "/components/resources/0/size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := "name: p\nnamespace: n\nversion: 1.0.0\ncomponents:\n  resources:\n    - name: r\n      file: r.txt\n"
			if tt.checksum != "" {
				manifest += "      checksum: " + tt.checksum + "\n"
			}
			if tt.size != "" {
				manifest += "      size: " + tt.size + "\n"
			}
			root := writePackage(t, map[string]string{
				"aipkg.yaml": manifest,
				"r.txt":      content,
			})

			violations, err := ValidateDir(root)
			if err != nil {
				t.Fatalf("ValidateDir error: %v", err)
			}
			if tt.wantPath == "" {
				if len(violations) != 0 {
					t.Errorf("violations = %v, want none", violations)
				}
				return
			}
			if !violationPaths(violations)[tt.wantPath] {
				t.Errorf("violations = %v, want one at %s", violations, tt.wantPath)
			}
		})
	}
}

func TestLoad_DuplicateNamesAcrossTypesAllowed(t *testing.T) {
	root := writePackage(t, map[string]string{
		"aipkg.yaml": `name: p
namespace: n
version: 1.0.0
components:
  instructions:
    - name: lint
      file: lint.md
  commands:
    - name: lint
      file: lint.md
      command_type: prompt
`,
		"lint.md": "# lint\n",
	})

	if _, err := Load(root); err != nil {
		t.Fatalf("Load error: %v", err)
	}
}

func TestValidateDir_Valid(t *testing.T) {
	for _, dir := range []string{"full-pack", "toml-pack", "json-pack"} {
		t.Run(dir, func(t *testing.T) {
			violations, err := ValidateDir(testPath(dir))
			if err != nil {
				t.Fatalf("ValidateDir error: %v", err)
			}
			for _, v := range violations {
				t.Errorf("unexpected violation %s [%s]", v, v.Keyword)
			}
		})
	}
}

func TestResolveFile(t *testing.T) {
	tests := []struct {
		rel     string
		wantErr bool
	}{
		{"rules/a.md", false},
		{"./rules/../rules/a.md", false},
		{"../a.md", true},
		{"rules/../../a.md", true},
		{"/etc/passwd", true},
	}
	for _, tt := range tests {
		_, err := resolveFile("/pkg", tt.rel)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveFile(%q) error = %v, wantErr %v", tt.rel, err, tt.wantErr)
		}
	}
}

func TestParseVersion(t *testing.T) {
	for _, v := range []string{"1.0.0", "v2.3.4", "1.0.0-rc.1"} {
		if _, err := ParseVersion(v); err != nil {
			t.Errorf("ParseVersion(%q) error: %v", v, err)
		}
	}
	for _, v := range []string{"one", "1.0", ""} {
		if _, err := ParseVersion(v); err == nil {
			t.Errorf("ParseVersion(%q) expected error", v)
		}
	}
}
