package conflict

import "fmt"

// ComponentWriteError is a filesystem failure while placing one component.
// It is local to that component; other components proceed.
type ComponentWriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *ComponentWriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ComponentWriteError) Unwrap() error { return e.Err }
