package manifest

// ComponentType is the kind of an installable component.
type ComponentType string

const (
	TypeInstruction ComponentType = "instruction"
	TypeMCPServer   ComponentType = "mcp_server"
	TypeHook        ComponentType = "hook"
	TypeCommand     ComponentType = "command"
	TypeResource    ComponentType = "resource"
)

// ComponentTypes returns every component type in install order.
func ComponentTypes() []ComponentType {
	return []ComponentType{TypeInstruction, TypeMCPServer, TypeHook, TypeCommand, TypeResource}
}

// Section returns the manifest key listing components of this type.
func (t ComponentType) Section() string {
	switch t {
	case TypeInstruction:
		return "instructions"
	case TypeMCPServer:
		return "mcp_servers"
	case TypeHook:
		return "hooks"
	case TypeCommand:
		return "commands"
	case TypeResource:
		return "resources"
	default:
		return string(t)
	}
}

// ParseComponentType accepts either the singular type name or its manifest
// section name ("hook" or "hooks").
func ParseComponentType(s string) (ComponentType, bool) {
	for _, t := range ComponentTypes() {
		if s == string(t) || s == t.Section() {
			return t, true
		}
	}
	return "", false
}

// Hook types accepted in hook_type.
var HookTypes = []string{
	"pre_tool_use",
	"post_tool_use",
	"user_prompt_submit",
	"notification",
	"stop",
	"subagent_stop",
	"pre_compact",
	"session_start",
	"session_end",
}

// Command types accepted in command_type.
var CommandTypes = []string{
	"slash",
	"prompt",
	"shell",
}

// Manifest is the decoded manifest document.
type Manifest struct {
	Name        string     `yaml:"name" json:"name"`
	Namespace   string     `yaml:"namespace" json:"namespace"`
	Version     string     `yaml:"version" json:"version"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Author      string     `yaml:"author,omitempty" json:"author,omitempty"`
	License     string     `yaml:"license,omitempty" json:"license,omitempty"`
	Components  Components `yaml:"components" json:"components"`
}

// Components groups component descriptors by section.
type Components struct {
	Instructions []Component `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	MCPServers   []Component `yaml:"mcp_servers,omitempty" json:"mcp_servers,omitempty"`
	Hooks        []Component `yaml:"hooks,omitempty" json:"hooks,omitempty"`
	Commands     []Component `yaml:"commands,omitempty" json:"commands,omitempty"`
	Resources    []Component `yaml:"resources,omitempty" json:"resources,omitempty"`
}

// Of returns the descriptors declared for a component type.
func (c Components) Of(t ComponentType) []Component {
	switch t {
	case TypeInstruction:
		return c.Instructions
	case TypeMCPServer:
		return c.MCPServers
	case TypeHook:
		return c.Hooks
	case TypeCommand:
		return c.Commands
	case TypeResource:
		return c.Resources
	default:
		return nil
	}
}

// Component describes one installable artifact. Type-specific fields are
// only meaningful for their type.
type Component struct {
	Type        ComponentType `yaml:"-" json:"-"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	File        string        `yaml:"file" json:"file"`
	Tags        []string      `yaml:"tags,omitempty" json:"tags,omitempty"`

	// hook
	HookType string `yaml:"hook_type,omitempty" json:"hook_type,omitempty"`
	// command
	CommandType string `yaml:"command_type,omitempty" json:"command_type,omitempty"`
	// mcp_server
	Credentials []Credential `yaml:"credentials,omitempty" json:"credentials,omitempty"`
	// resource
	Checksum string `yaml:"checksum,omitempty" json:"checksum,omitempty"`
	Size     int64  `yaml:"size,omitempty" json:"size,omitempty"`
}

// ID returns "type/name", unique within a package.
func (c Component) ID() string {
	return string(c.Type) + "/" + c.Name
}

// HasTag reports whether the component carries tag.
func (c Component) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (c Component) clone() Component {
	c.Tags = append([]string(nil), c.Tags...)
	c.Credentials = append([]Credential(nil), c.Credentials...)
	return c
}

// Credential is a secret an MCP server needs at runtime.
type Credential struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
}
