// Package conflict decides what happens when a component is written to a
// path that may already hold a file. The decision depends on whether the
// file exists, whether the ledger recorded writing it, and whether its
// content still matches what was recorded. Foreign and user-modified files
// are handled by a Strategy chosen once per invocation.
package conflict
