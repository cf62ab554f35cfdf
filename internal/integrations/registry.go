package integrations

import (
	"os"

	"github.com/agentx-labs/aipkg/internal/manifest"
	"github.com/agentx-labs/aipkg/internal/platform"
)

// ToolName identifies a supported AI tool integration.
type ToolName string

const (
	ClaudeCode ToolName = "claude-code"
	Cursor     ToolName = "cursor"
	Copilot    ToolName = "copilot"
	Augment    ToolName = "augment"
	OpenCode   ToolName = "opencode"
)

// Layout places one component type inside a tool's directory.
type Layout struct {
	Dir  string      // path below the tool root
	Ext  string      // file extension; empty keeps the source extension
	Mode os.FileMode // file mode of the written file
}

// ToolConfig describes where a tool reads its configuration from.
type ToolConfig struct {
	Root    string // directory under the project or home root
	Layouts map[manifest.ComponentType]Layout
}

const (
	fileMode = platform.FilePerm
	execMode = platform.ExecPerm
)

// AllTools returns all supported tool names.
func AllTools() []ToolName {
	return []ToolName{ClaudeCode, Cursor, Copilot, Augment, OpenCode}
}

// toolRegistry maps each tool to its layout. A missing component type means
// the tool has no place for it.
var toolRegistry = map[ToolName]ToolConfig{
	ClaudeCode: {
		Root: ".claude",
		Layouts: map[manifest.ComponentType]Layout{
			manifest.TypeInstruction: {Dir: "rules", Ext: ".md", Mode: fileMode},
			manifest.TypeCommand:     {Dir: "commands", Ext: ".md", Mode: fileMode},
			manifest.TypeHook:        {Dir: "hooks", Mode: execMode},
			manifest.TypeMCPServer:   {Dir: "mcp", Ext: ".json", Mode: fileMode},
			manifest.TypeResource:    {Dir: "resources", Mode: fileMode},
		},
	},
	Cursor: {
		Root: ".cursor",
		Layouts: map[manifest.ComponentType]Layout{
			manifest.TypeInstruction: {Dir: "rules", Ext: ".mdc", Mode: fileMode},
			manifest.TypeCommand:     {Dir: "commands", Ext: ".md", Mode: fileMode},
			manifest.TypeMCPServer:   {Dir: "mcp", Ext: ".json", Mode: fileMode},
			manifest.TypeResource:    {Dir: "resources", Mode: fileMode},
		},
	},
	Copilot: {
		Root: ".github",
		Layouts: map[manifest.ComponentType]Layout{
			manifest.TypeInstruction: {Dir: "instructions", Ext: ".instructions.md", Mode: fileMode},
			manifest.TypeCommand:     {Dir: "prompts", Ext: ".prompt.md", Mode: fileMode},
			manifest.TypeResource:    {Dir: "resources", Mode: fileMode},
		},
	},
	Augment: {
		Root: ".augment",
		Layouts: map[manifest.ComponentType]Layout{
			manifest.TypeInstruction: {Dir: "rules", Ext: ".md", Mode: fileMode},
			manifest.TypeCommand:     {Dir: "commands", Ext: ".md", Mode: fileMode},
			manifest.TypeMCPServer:   {Dir: "mcp", Ext: ".json", Mode: fileMode},
		},
	},
	OpenCode: {
		Root: ".opencode",
		Layouts: map[manifest.ComponentType]Layout{
			manifest.TypeInstruction: {Dir: "rules", Ext: ".md", Mode: fileMode},
			manifest.TypeCommand:     {Dir: "command", Ext: ".md", Mode: fileMode},
			manifest.TypeMCPServer:   {Dir: "mcp", Ext: ".json", Mode: fileMode},
			manifest.TypeResource:    {Dir: "resources", Mode: fileMode},
		},
	},
}

// ParseToolName converts a string to a ToolName, returning false if invalid.
func ParseToolName(s string) (ToolName, bool) {
	for _, tool := range AllTools() {
		if string(tool) == s {
			return tool, true
		}
	}
	return "", false
}

// Supports reports whether tool has a location for components of type t.
func Supports(tool ToolName, t manifest.ComponentType) bool {
	_, ok := layoutFor(tool, t)
	return ok
}

// SupportedTypes returns the component types tool accepts, in install order.
func SupportedTypes(tool ToolName) []manifest.ComponentType {
	var out []manifest.ComponentType
	for _, t := range manifest.ComponentTypes() {
		if Supports(tool, t) {
			out = append(out, t)
		}
	}
	return out
}

func layoutFor(tool ToolName, t manifest.ComponentType) (Layout, bool) {
	cfg, ok := toolRegistry[tool]
	if !ok {
		return Layout{}, false
	}
	l, ok := cfg.Layouts[t]
	return l, ok
}
