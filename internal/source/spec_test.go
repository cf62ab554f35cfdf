package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSpec(t *testing.T) {
	abs, _ := filepath.Abs("packs/style")

	tests := []struct {
		raw      string
		ref      string
		kind     Kind
		location string
		wantRef  string
	}{
		{"https://github.com/acme/style-pack", "", KindGit, "https://github.com/acme/style-pack", ""},
		{"https://github.com/acme/style-pack#v1.2.0", "", KindGit, "https://github.com/acme/style-pack", "v1.2.0"},
		{"https://github.com/acme/style-pack#main", "v2.0.0", KindGit, "https://github.com/acme/style-pack", "v2.0.0"},
		{"git@github.com:acme/style-pack.git", "", KindGit, "git@github.com:acme/style-pack.git", ""},
		{"github.com/acme/style-pack", "", KindGit, "https://github.com/acme/style-pack", ""},
		{"example.org/acme/style-pack.git#abc123", "", KindGit, "example.org/acme/style-pack.git", "abc123"},
		{"/srv/packs/style", "", KindLocal, "/srv/packs/style", ""},
		{"packs/style", "", KindLocal, abs, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			spec, err := ParseSpec(tt.raw, tt.ref)
			if err != nil {
				t.Fatalf("ParseSpec(%q) error: %v", tt.raw, err)
			}
			if spec.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", spec.Kind, tt.kind)
			}
			if tt.kind == KindLocal && filepath.IsAbs(tt.location) {
				tt.location = filepath.Clean(tt.location)
			}
			if spec.Location != tt.location {
				t.Errorf("Location = %q, want %q", spec.Location, tt.location)
			}
			if spec.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", spec.Ref, tt.wantRef)
			}
		})
	}
}

func TestParseSpec_ExistingDirectoryIsLocal(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.Mkdir("pack.git", 0755); err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.Abs("pack.git")

	got, err := ParseSpec("pack.git", "")
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if got.Kind != KindLocal || got.Location != want {
		t.Errorf("ParseSpec(pack.git) = %+v, want local %s", got, want)
	}

	// Without a directory on disk the name still reads as a git URL.
	got, err = ParseSpec("other.git", "")
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if got.Kind != KindGit {
		t.Errorf("ParseSpec(other.git).Kind = %s, want git", got.Kind)
	}
}

func TestParseSpec_Errors(t *testing.T) {
	tests := []struct {
		raw string
		ref string
	}{
		{"", ""},
		{"   ", ""},
		{"./local", "v1.0.0"},
	}
	for _, tt := range tests {
		_, err := ParseSpec(tt.raw, tt.ref)
		var se *SourceError
		if !errors.As(err, &se) {
			t.Errorf("ParseSpec(%q, %q) error = %v, want *SourceError", tt.raw, tt.ref, err)
		}
	}
}

func TestSpec_StringRoundTrips(t *testing.T) {
	for _, raw := range []string{
		"https://github.com/acme/style-pack#v1.2.0",
		"git@github.com:acme/style-pack.git",
		"/srv/packs/style",
	} {
		spec, err := ParseSpec(raw, "")
		if err != nil {
			t.Fatalf("ParseSpec(%q) error: %v", raw, err)
		}
		again, err := ParseSpec(spec.String(), "")
		if err != nil {
			t.Fatalf("ParseSpec(%q) error: %v", spec.String(), err)
		}
		if again.Kind != spec.Kind || again.Location != spec.Location || again.Ref != spec.Ref {
			t.Errorf("round trip of %q: got %+v, want %+v", raw, again, spec)
		}
	}
}
