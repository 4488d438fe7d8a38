// SPDX-License-Identifier: MPL-2.0

package gate

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	helperEnv    = "DOTNETUP_GATE_HELPER_DIR"
	helperLockID = "manifest"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	return New(t.TempDir(), WithPollInterval(time.Millisecond, 10*time.Millisecond))
}

func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	g := newTestGate(t)
	guard, err := g.Acquire(context.Background(), "manifest")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if guard.Nested() || guard.Name() != "manifest" {
		t.Errorf("guard = %+v", guard)
	}
	if _, err := os.Stat(g.Path("manifest")); err != nil {
		t.Errorf("lock file missing: %v", err)
	}
	if err := guard.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := guard.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}

	again, err := g.Acquire(context.Background(), "manifest")
	if err != nil {
		t.Fatalf("re-Acquire() error = %v", err)
	}
	_ = again.Release()
}

func TestAcquire_InvalidName(t *testing.T) {
	t.Parallel()

	g := newTestGate(t)
	for _, name := range []string{"", "..", "a/b", `a\b`, "lock name"} {
		if _, err := g.Acquire(context.Background(), name); !errors.Is(err, ErrInvalidLockName) {
			t.Errorf("Acquire(%q) error = %v, want ErrInvalidLockName", name, err)
		}
	}
}

func TestAcquire_MutualExclusionInProcess(t *testing.T) {
	t.Parallel()

	g := newTestGate(t)
	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Do(context.Background(), "manifest", func(context.Context) error {
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("Do() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if overlap.Load() {
		t.Error("two holders were inside the lock at the same time")
	}
}

func TestAcquire_HonorsContext(t *testing.T) {
	t.Parallel()

	g := newTestGate(t)
	held, err := g.Acquire(context.Background(), "manifest")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = held.Release() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = g.Acquire(ctx, "manifest")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire() error = %v, want DeadlineExceeded", err)
	}
	if errors.Is(err, ErrLockAcquisition) {
		t.Error("a canceled wait is not an OS acquisition failure")
	}

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	if _, err := g.Acquire(canceled, "other"); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire(canceled) error = %v", err)
	}
}

func TestDo_Reentrant(t *testing.T) {
	t.Parallel()

	g := newTestGate(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := g.Do(ctx, "manifest", func(ctx context.Context) error {
		inner, err := g.Acquire(ctx, "manifest")
		if err != nil {
			return err
		}
		if !inner.Nested() {
			t.Error("inner guard should be nested")
		}
		if err := inner.Release(); err != nil {
			return err
		}
		// Releasing the nested guard must not drop the outer lock.
		probe, cancelProbe := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancelProbe()
		if _, err := g.Acquire(probe, "manifest"); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("outer lock was dropped by nested release: %v", err)
		}
		return g.Do(ctx, "manifest", func(context.Context) error { return nil })
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestDo_ReleasesOnErrorAndPanic(t *testing.T) {
	t.Parallel()

	g := newTestGate(t)
	sentinel := errors.New("boom")
	if err := g.Do(context.Background(), "manifest", func(context.Context) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("Do() error = %v, want sentinel", err)
	}

	func() {
		defer func() { _ = recover() }()
		_ = g.Do(context.Background(), "manifest", func(context.Context) error { panic("boom") })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	guard, err := g.Acquire(ctx, "manifest")
	if err != nil {
		t.Fatalf("lock still held after panic: %v", err)
	}
	_ = guard.Release()
}

// TestHelperProcess holds the lock for the cross-process test until its
// stdin closes. It is a no-op when run normally.
func TestHelperProcess(t *testing.T) {
	dir := os.Getenv(helperEnv)
	if dir == "" {
		return
	}
	guard, err := New(dir).Acquire(context.Background(), helperLockID)
	if err != nil {
		os.Exit(3)
	}
	_, _ = os.Stdout.WriteString("locked\n")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
	_ = guard.Release()
	os.Exit(0)
}

func TestAcquire_CrossProcessAndCrashRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a child process")
	}

	dir := t.TempDir()
	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$")
	cmd.Env = append(os.Environ(), helperEnv+"="+dir)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = stdin.Close() })

	line, err := bufio.NewReader(stdout).ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "locked" {
		_ = cmd.Process.Kill()
		t.Fatalf("helper did not report the lock: %q, %v", line, err)
	}

	g := New(dir, WithPollInterval(time.Millisecond, 10*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	_, err = g.Acquire(ctx, helperLockID)
	cancel()
	if !errors.Is(err, context.DeadlineExceeded) {
		_ = cmd.Process.Kill()
		t.Fatalf("lock held by another process was acquired: %v", err)
	}

	// Killing the holder stands in for a crash; the OS must drop its lock.
	if err := cmd.Process.Kill(); err != nil {
		t.Fatal(err)
	}
	_ = cmd.Wait()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	guard, err := g.Acquire(ctx, helperLockID)
	if err != nil {
		t.Fatalf("lock not released after holder died: %v", err)
	}
	_ = guard.Release()
}
