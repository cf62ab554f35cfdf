package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentx-labs/aipkg/internal/platform"
)

const (
	// DefaultLockTimeout bounds lock acquisition when no option overrides it.
	DefaultLockTimeout = 10 * time.Second
	defaultRetryDelay  = 50 * time.Millisecond
	lockSuffix         = ".lock"
	corruptSuffix      = ".corrupt-"
)

// Ledger is the lock-guarded store for a single scope.
type Ledger struct {
	path       string
	scope      Scope
	timeout    time.Duration
	retryDelay time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLockTimeout sets how long Update and View wait for the lock.
func WithLockTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets the logger used for lock and recovery diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Ledger) { l.log = logger }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a ledger persisted at path for the given scope. Nothing is
// read or locked until Update or View is called.
func New(path string, scope Scope, opts ...Option) *Ledger {
	l := &Ledger{
		path:       path,
		scope:      scope,
		timeout:    DefaultLockTimeout,
		retryDelay: defaultRetryDelay,
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Scope returns the scope this ledger covers.
func (l *Ledger) Scope() Scope { return l.scope }

// Now returns the ledger's notion of the current time.
func (l *Ledger) Now() time.Time { return l.now().UTC() }

// Update runs fn inside a locked read-modify-write cycle. The ledger is
// loaded after the lock is taken and saved before it is released if fn
// returns nil and changed anything.
func (l *Ledger) Update(ctx context.Context, fn func(tx *Tx) error) error {
	return l.withLock(ctx, func() error {
		tx, err := l.load()
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		if !tx.dirty {
			return nil
		}
		return l.save(tx)
	})
}

// View runs fn against a locked snapshot of the ledger. Changes made by fn
// are discarded.
func (l *Ledger) View(ctx context.Context, fn func(tx *Tx) error) error {
	return l.withLock(ctx, func() error {
		tx, err := l.load()
		if err != nil {
			return err
		}
		return fn(tx)
	})
}

// List returns every record in the ledger sorted by namespace and name.
func (l *Ledger) List(ctx context.Context) ([]*Record, error) {
	var records []*Record
	err := l.View(ctx, func(tx *Tx) error {
		records = tx.List()
		return nil
	})
	return records, err
}

// Rebuild discards a corrupt ledger. The unreadable file is moved aside to
// "<path>.corrupt-<timestamp>" and an empty ledger takes its place. The
// returned path is the backup location, or "" if there was nothing to move.
func (l *Ledger) Rebuild(ctx context.Context) (string, error) {
	var backup string
	err := l.withLock(ctx, func() error {
		if _, err := os.Stat(l.path); err == nil {
			backup = l.path + corruptSuffix + l.Now().Format("20060102T150405Z")
			if err := os.Rename(l.path, backup); err != nil {
				return &LedgerError{Op: "rebuild", Path: l.path, Err: err}
			}
			l.log.Warn().
				Str("ledger", l.path).
				Str("backup", backup).
				Msg("Ledger reset to an empty state; previous contents preserved in backup")
		}
		return l.save(&Tx{scope: l.scope})
	})
	if err != nil {
		return "", err
	}
	return backup, nil
}

func (l *Ledger) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(l.path), platform.DirPerm); err != nil {
		return &LedgerError{Op: "lock", Path: l.path, Err: err}
	}

	lockCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	fl := flock.New(l.path + lockSuffix)
	locked, err := fl.TryLockContext(lockCtx, l.retryDelay)
	if !locked {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w (waited %s)", ErrLedgerBusy, l.timeout)
		}
		return &LedgerError{Op: "lock", Path: l.path, Err: err}
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			l.log.Warn().Err(err).Str("ledger", l.path).Msg("Failed to release ledger lock")
		}
	}()

	l.log.Trace().Str("ledger", l.path).Msg("Ledger lock acquired")
	return fn()
}

func (l *Ledger) load() (*Tx, error) {
	tx := &Tx{scope: l.scope}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return tx, nil
	}
	if err != nil {
		return nil, &LedgerError{Op: "load", Path: l.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return tx, nil
	}

	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, l.corrupt(err)
	}

	seen := make(map[Key]bool, len(records))
	for i, r := range records {
		if r == nil || r.Namespace == "" || r.PackageName == "" {
			return nil, l.corrupt(fmt.Errorf("entry %d has no namespace or package name", i))
		}
		if r.Scope == "" {
			r.Scope = l.scope
		}
		if r.Scope != l.scope {
			return nil, l.corrupt(fmt.Errorf("entry %s has scope %q in the %s ledger", r.Key(), r.Scope, l.scope))
		}
		if seen[r.Key()] {
			return nil, l.corrupt(fmt.Errorf("duplicate entry %s", r.Key()))
		}
		seen[r.Key()] = true
	}
	tx.records = records
	return tx, nil
}

func (l *Ledger) corrupt(err error) error {
	return &LedgerError{
		Op:      "load",
		Path:    l.path,
		Corrupt: true,
		Err:     fmt.Errorf("%w: %v", ErrCorrupt, err),
	}
}

func (l *Ledger) save(tx *Tx) error {
	records := tx.List()
	if records == nil {
		records = []*Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &LedgerError{Op: "save", Path: l.path, Err: err}
	}
	data = append(data, '\n')
	if err := platform.WriteFileAtomic(l.path, data, 0644); err != nil {
		return &LedgerError{Op: "save", Path: l.path, Err: err}
	}
	l.log.Debug().Str("ledger", l.path).Int("packages", len(records)).Msg("Ledger saved")
	return nil
}

// Tx is the in-memory view of a ledger inside a locked cycle. It is only
// valid for the duration of the callback it is passed to.
type Tx struct {
	scope   Scope
	records []*Record
	dirty   bool
}

// Scope returns the scope of the underlying ledger.
func (tx *Tx) Scope() Scope { return tx.scope }

// Get returns a copy of the record for namespace/name.
func (tx *Tx) Get(namespace, name string) (*Record, bool) {
	if i := tx.index(namespace, name); i >= 0 {
		return tx.records[i].Clone(), true
	}
	return nil, false
}

// Upsert stores a copy of r, replacing any record with the same key.
// A missing ID is generated and the scope is forced to the ledger's scope.
func (tx *Tx) Upsert(r *Record) {
	c := r.Clone()
	c.Scope = tx.scope
	if c.ID == "" {
		if i := tx.index(c.Namespace, c.PackageName); i >= 0 {
			c.ID = tx.records[i].ID
		} else {
			c.ID = uuid.NewString()
		}
	}
	if i := tx.index(c.Namespace, c.PackageName); i >= 0 {
		tx.records[i] = c
	} else {
		tx.records = append(tx.records, c)
	}
	tx.dirty = true
}

// Delete removes the record for namespace/name.
func (tx *Tx) Delete(namespace, name string) bool {
	i := tx.index(namespace, name)
	if i < 0 {
		return false
	}
	tx.records = append(tx.records[:i], tx.records[i+1:]...)
	tx.dirty = true
	return true
}

// List returns copies of all records sorted by namespace and name.
func (tx *Tx) List() []*Record {
	out := make([]*Record, 0, len(tx.records))
	for _, r := range tx.records {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].PackageName < out[j].PackageName
	})
	return out
}

// Owner returns the record and component that own the file at path. Only
// components the installer actually wrote count as owners.
func (tx *Tx) Owner(path string) (*Record, ComponentRecord, bool) {
	for _, r := range tx.records {
		for _, c := range r.Components {
			if c.Owned() && samePath(c.InstalledPath, path) {
				return r.Clone(), c, true
			}
		}
	}
	return nil, ComponentRecord{}, false
}

func (tx *Tx) index(namespace, name string) int {
	for i, r := range tx.records {
		if r.Namespace == namespace && r.PackageName == name {
			return i
		}
	}
	return -1
}
