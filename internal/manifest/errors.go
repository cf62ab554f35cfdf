package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrManifestNotFound is returned when a directory contains none of the
// recognized manifest files.
var ErrManifestNotFound = errors.New("no manifest found")

// Violation is a single problem found in a manifest.
type Violation struct {
	Path    string // Instance location (e.g., "/version", "/components/hooks/0/hook_type")
	Message string
	Keyword string // Schema keyword or semantic check that failed
}

func (v Violation) String() string {
	path := v.Path
	if path == "" {
		path = "(root)"
	}
	return path + ": " + v.Message
}

// SchemaError reports every violation found in a manifest.
type SchemaError struct {
	Manifest   string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid manifest %s: %d violation(s)", e.Manifest, len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.String())
	}
	return b.String()
}
