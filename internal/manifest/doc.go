// Package manifest parses and validates package manifests. A manifest
// (aipkg.yaml, aipkg.json or aipkg.toml at a package root) declares the
// package identity and its components: instructions, MCP servers, hooks,
// commands and resources. Validation runs the document through an embedded
// JSON Schema and a set of filesystem checks, and reports every violation at
// once in a SchemaError.
package manifest
