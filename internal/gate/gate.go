// SPDX-License-Identifier: MPL-2.0

package gate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dotnet/sdk-sub056/internal/logging"
)

const (
	defaultMinPoll = 5 * time.Millisecond
	defaultMaxPoll = 200 * time.Millisecond
)

var (
	// ErrLockAcquisition is the sentinel error wrapped by AcquireError.
	ErrLockAcquisition = errors.New("lock acquisition failed")
	// ErrInvalidLockName is returned for names that are not plain file stems.
	ErrInvalidLockName = errors.New("invalid lock name")
)

type (
	// Gate hands out locks stored as files in one directory.
	Gate struct {
		dir     string
		minPoll time.Duration
		maxPoll time.Duration
		logger  *log.Logger
	}

	// Option configures a Gate.
	Option func(*Gate)

	// Guard is a held lock. Release is idempotent and safe for concurrent use.
	Guard struct {
		gate   *Gate
		name   string
		path   string
		file   *os.File
		nested bool
		once   sync.Once
		err    error
	}

	// AcquireError reports an OS-level failure to take a lock.
	AcquireError struct {
		Name string
		Path string
		Err  error
	}

	heldKey struct{ path string }
)

// Error implements the error interface.
func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquiring lock %q (%s): %v", e.Name, e.Path, e.Err)
}

// Unwrap returns both ErrLockAcquisition and the OS error.
func (e *AcquireError) Unwrap() []error { return []error{ErrLockAcquisition, e.Err} }

// WithPollInterval bounds the backoff between non-blocking lock attempts.
func WithPollInterval(minPoll, maxPoll time.Duration) Option {
	return func(g *Gate) {
		if minPoll > 0 {
			g.minPoll = minPoll
		}
		if maxPoll >= g.minPoll {
			g.maxPoll = maxPoll
		}
	}
}

// WithLogger sets the logger used for wait diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

// New returns a Gate whose lock files live in dir. The directory is
// created on first use.
func New(dir string, opts ...Option) *Gate {
	g := &Gate{dir: dir, minPoll: defaultMinPoll, maxPoll: defaultMaxPoll}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrDiscard(g.logger)
	return g
}

// Dir returns the lock directory.
func (g *Gate) Dir() string { return g.dir }

// Path returns the lock file backing name.
func (g *Gate) Path(name string) string {
	return filepath.Join(g.dir, name+".lock")
}

// Acquire blocks until the named lock is held or ctx is done. If ctx
// already carries the lock (see Guard.Context) a nested guard is returned
// and nothing is locked again.
func (g *Gate) Acquire(ctx context.Context, name string) (*Guard, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	path := g.Path(name)
	if held, _ := ctx.Value(heldKey{path: path}).(bool); held {
		return &Guard{gate: g, name: name, path: path, nested: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, &AcquireError{Name: name, Path: path, Err: err}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, &AcquireError{Name: name, Path: path, Err: err}
	}

	wait := g.minPoll
	start := time.Now()
	logged := false
	for {
		ok, lockErr := tryLock(f)
		if lockErr != nil {
			_ = f.Close()
			return nil, &AcquireError{Name: name, Path: path, Err: lockErr}
		}
		if ok {
			if logged {
				g.logger.Debug("lock acquired", "lock", name, "waited", time.Since(start).Round(time.Millisecond))
			}
			return &Guard{gate: g, name: name, path: path, file: f}, nil
		}
		if !logged {
			g.logger.Debug("waiting for lock held by another process", "lock", name, "path", path)
			logged = true
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = f.Close()
			return nil, fmt.Errorf("waiting for lock %q: %w", name, ctx.Err())
		case <-timer.C:
		}
		wait = min(wait*2, g.maxPoll)
	}
}

// Do runs fn while holding the named lock. The lock is released when fn
// returns or panics. fn receives a context that marks the lock as held.
func (g *Gate) Do(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	guard, err := g.Acquire(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := guard.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn(guard.Context(ctx))
}

// Name returns the lock name.
func (g *Guard) Name() string { return g.name }

// Nested reports whether the guard re-entered a lock already held by the
// surrounding operation.
func (g *Guard) Nested() bool { return g.nested }

// Context returns a child of parent that records this lock as held.
func (g *Guard) Context(parent context.Context) context.Context {
	return context.WithValue(parent, heldKey{path: g.path}, true)
}

// Release unlocks and closes the lock file. Only the first call has an
// effect; later calls return the first call's result. Releasing a nested
// guard does nothing.
func (g *Guard) Release() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		if g.nested || g.file == nil {
			return
		}
		unlockErr := unlock(g.file)
		closeErr := g.file.Close()
		g.file = nil
		g.err = errors.Join(unlockErr, closeErr)
		g.gate.logger.Debug("lock released", "lock", g.name)
	})
	return g.err
}

func validateName(name string) error {
	if name == "" || len(name) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidLockName, name)
	}
	for _, r := range name {
		ok := r == '-' || r == '_' || r == '.' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidLockName, name)
		}
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidLockName, name)
	}
	return nil
}
