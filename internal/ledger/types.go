package ledger

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Scope is the breadth of an installation.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
)

// Scopes lists every scope in display order.
func Scopes() []Scope {
	return []Scope{ScopeProject, ScopeGlobal}
}

// ParseScope converts a string to a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeProject, ScopeGlobal:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("invalid scope %q: expected project or global", s)
	}
}

// ComponentStatus is the persisted state of one installed component.
type ComponentStatus string

const (
	StatusInstalled ComponentStatus = "installed"
	StatusSkipped   ComponentStatus = "skipped"
	StatusRenamed   ComponentStatus = "renamed"
	StatusFailed    ComponentStatus = "failed"
)

// Record status values.
const (
	RecordInstalled = "installed"
	RecordPartial   = "partial"
)

// ComponentRecord tracks a single file written (or deliberately not written)
// for a package component.
type ComponentRecord struct {
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	InstalledPath string          `json:"installed_path"`
	Checksum      string          `json:"checksum"`
	Status        ComponentStatus `json:"status"`
}

// ID returns the "type/name" identifier of the component.
func (c ComponentRecord) ID() string {
	return c.Type + "/" + c.Name
}

// Owned reports whether the installer has ever written the file at
// InstalledPath. A skipped foreign file has no checksum and is not owned.
func (c ComponentRecord) Owned() bool {
	return c.Checksum != ""
}

// Record is the ledger entry for one installed package in one scope.
type Record struct {
	ID          string            `json:"id"`
	PackageName string            `json:"package_name"`
	Namespace   string            `json:"namespace"`
	Version     string            `json:"version"`
	Scope       Scope             `json:"scope"`
	IDEType     string            `json:"ide_type"`
	Source      string            `json:"source,omitempty"`
	Types       []string          `json:"types,omitempty"` // component types installed; empty means all
	InstalledAt time.Time         `json:"installed_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Status      string            `json:"status"`
	Components  []ComponentRecord `json:"components"`
}

// Key returns the ledger key of the record.
func (r *Record) Key() Key {
	return Key{Namespace: r.Namespace, Name: r.PackageName, Scope: r.Scope}
}

// Component returns the component with the given type and name.
func (r *Record) Component(typ, name string) (ComponentRecord, bool) {
	for _, c := range r.Components {
		if c.Type == typ && c.Name == name {
			return c, true
		}
	}
	return ComponentRecord{}, false
}

// SetComponent replaces the component with the same type and name, or
// appends it.
func (r *Record) SetComponent(c ComponentRecord) {
	for i := range r.Components {
		if r.Components[i].Type == c.Type && r.Components[i].Name == c.Name {
			r.Components[i] = c
			return
		}
	}
	r.Components = append(r.Components, c)
}

// RemoveComponent drops the component with the given type and name.
func (r *Record) RemoveComponent(typ, name string) bool {
	for i, c := range r.Components {
		if c.Type == typ && c.Name == name {
			r.Components = append(r.Components[:i], r.Components[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Components = append([]ComponentRecord(nil), r.Components...)
	c.Types = append([]string(nil), r.Types...)
	return &c
}

// Key identifies a package installation.
type Key struct {
	Namespace string
	Name      string
	Scope     Scope
}

// String renders the key as "namespace/name".
func (k Key) String() string {
	return k.Namespace + "/" + k.Name
}

// ParseKey parses "namespace/name" into a key for the given scope.
func ParseKey(s string, scope Scope) (Key, error) {
	ns, name, ok := strings.Cut(s, "/")
	if !ok || ns == "" || name == "" || strings.Contains(name, "/") {
		return Key{}, fmt.Errorf("invalid package reference %q: expected <namespace>/<name>", s)
	}
	return Key{Namespace: ns, Name: name, Scope: scope}, nil
}

// samePath compares two installed paths after cleaning.
func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
