// Package ledger is the persistent record of what has been installed where.
// Each scope (project or global) has its own JSON file; every
// read-modify-write cycle runs under an exclusive file lock acquired with a
// bounded timeout. The ledger, not the filesystem, is authoritative for which
// files the installer owns.
package ledger
