package ledger

import (
	"errors"
	"fmt"
)

// ErrLedgerBusy is returned when the ledger lock could not be acquired
// before the configured timeout.
var ErrLedgerBusy = errors.New("ledger is locked by another process")

// ErrCorrupt marks a persisted ledger that could not be decoded.
var ErrCorrupt = errors.New("ledger file is corrupt")

// LedgerError reports a failure to lock, load, or save a ledger file.
type LedgerError struct {
	Op      string // "lock", "load", "save", "rebuild"
	Path    string
	Corrupt bool
	Err     error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err stems from an undecodable ledger file.
func IsCorrupt(err error) bool {
	var le *LedgerError
	return errors.As(err, &le) && le.Corrupt
}
