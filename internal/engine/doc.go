// Package engine installs, updates and uninstalls packages. Every operation
// runs inside a single locked ledger cycle: the ledger is read, files are
// placed or removed, and the resulting records are written back before the
// lock is released. Failures are tracked per component so one bad file
// never aborts the rest of a package.
package engine
