package integrations

import (
	"testing"

	"github.com/agentx-labs/aipkg/internal/manifest"
)

func TestParseToolName_AllKnown(t *testing.T) {
	cases := []struct {
		input string
		want  ToolName
	}{
		{"claude-code", ClaudeCode},
		{"cursor", Cursor},
		{"copilot", Copilot},
		{"augment", Augment},
		{"opencode", OpenCode},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			name, ok := ParseToolName(tc.input)
			if !ok {
				t.Fatalf("ParseToolName(%q) returned false, want true", tc.input)
			}
			if name != tc.want {
				t.Fatalf("ParseToolName(%q) = %q, want %q", tc.input, name, tc.want)
			}
		})
	}
}

func TestParseToolName_Unknown(t *testing.T) {
	if _, ok := ParseToolName("vim"); ok {
		t.Fatal("ParseToolName(\"vim\") returned true, want false")
	}
}

func TestAllTools_Registered(t *testing.T) {
	for _, tool := range AllTools() {
		cfg, ok := toolRegistry[tool]
		if !ok {
			t.Errorf("%s missing from registry", tool)
			continue
		}
		if cfg.Root == "" {
			t.Errorf("%s has empty root", tool)
		}
		if !Supports(tool, manifest.TypeInstruction) {
			t.Errorf("%s does not support instructions", tool)
		}
	}
}

func TestSupports(t *testing.T) {
	cases := []struct {
		tool ToolName
		typ  manifest.ComponentType
		want bool
	}{
		{ClaudeCode, manifest.TypeHook, true},
		{Cursor, manifest.TypeHook, false},
		{Copilot, manifest.TypeMCPServer, false},
		{Copilot, manifest.TypeCommand, true},
		{Augment, manifest.TypeResource, false},
		{OpenCode, manifest.TypeResource, true},
		{ToolName("vim"), manifest.TypeInstruction, false},
	}

	for _, tc := range cases {
		if got := Supports(tc.tool, tc.typ); got != tc.want {
			t.Errorf("Supports(%s, %s) = %v, want %v", tc.tool, tc.typ, got, tc.want)
		}
	}
}

func TestSupportedTypes_ClaudeCodeHasAll(t *testing.T) {
	got := SupportedTypes(ClaudeCode)
	want := manifest.ComponentTypes()
	if len(got) != len(want) {
		t.Fatalf("SupportedTypes(claude-code) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SupportedTypes(claude-code)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
