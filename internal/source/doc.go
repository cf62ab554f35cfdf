// Package source turns the argument of "install" into a local package
// directory. Local paths are used in place; git URLs (optionally suffixed
// with #branch, #tag or #commit) are cloned into the cache by shelling out
// to git.
package source
