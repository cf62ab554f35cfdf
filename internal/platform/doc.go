// Package platform wraps the filesystem primitives the installer relies on:
// content checksums, atomic replace-by-rename writes, exclusive creates, and
// permission changes that degrade gracefully on Windows.
package platform
