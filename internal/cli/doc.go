// Package cli defines the Cobra command tree for the aipkg CLI. Each file
// registers one top-level command (install, update, list, uninstall, etc.)
// with the root command. Commands resolve flags against the user config,
// delegate to the engine and print one outcome line per component.
package cli
