// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dotnet/sdk-sub056/internal/archive"
	"github.com/dotnet/sdk-sub056/internal/channel"
	"github.com/dotnet/sdk-sub056/internal/gate"
	"github.com/dotnet/sdk-sub056/internal/logging"
	"github.com/dotnet/sdk-sub056/internal/manifest"
	"github.com/dotnet/sdk-sub056/internal/releases"
	"github.com/dotnet/sdk-sub056/internal/validate"
	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

const (
	// DefaultLockName is the gate lock that guards the manifest.
	DefaultLockName = "manifest"

	// StagingDirName is the directory under an install root that holds
	// in-flight extractions.
	StagingDirName = ".dotnetup-staging"

	defaultParallelism = 2

	// stagingTidyTimeout bounds the wait for the gate when removing the
	// shared staging parent after an install.
	stagingTidyTimeout = 30 * time.Second
)

type (
	// Validator checks an extracted tree. *validate.Validator implements it.
	Validator interface {
		Validate(root string, c types.Component, v version.Version) error
	}

	// Installer runs installs against one manifest and one gate.
	Installer struct {
		store       *manifest.Store
		gate        *gate.Gate
		resolver    *channel.Resolver
		validator   Validator
		observer    Observer
		logger      *log.Logger
		now         func() time.Time
		scope       types.Scope
		limits      archive.Limits
		parallelism int
		lockName    string
	}

	// Option configures an Installer.
	Option func(*Installer)

	// Result is the successful end of an install.
	Result struct {
		Outcome Outcome
		Record  manifest.Record
	}

	// Request asks for a channel of a component in a root. An empty Scope
	// uses the installer's default.
	Request struct {
		Channel   string
		Component types.Component
		Root      types.InstallRoot
		Scope     types.Scope
	}

	// BatchResult pairs a request of InstallAll with its result or error.
	BatchResult struct {
		Request Request
		Result  *Result
		Err     error
	}
)

// WithResolver sets the channel resolver.
func WithResolver(r *channel.Resolver) Option {
	return func(i *Installer) { i.resolver = r }
}

// WithValidator replaces the archive validator.
func WithValidator(v Validator) Option {
	return func(i *Installer) { i.validator = v }
}

// WithObserver registers an observer for state transitions.
func WithObserver(o Observer) Option {
	return func(i *Installer) { i.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// WithClock sets the time source used for InstalledAt.
func WithClock(now func() time.Time) Option {
	return func(i *Installer) { i.now = now }
}

// WithScope sets the scope recorded when a request does not name one.
func WithScope(s types.Scope) Option {
	return func(i *Installer) { i.scope = s }
}

// WithLimits sets the extraction limits.
func WithLimits(l archive.Limits) Option {
	return func(i *Installer) { i.limits = l }
}

// WithParallelism bounds concurrent installs in InstallAll. Values below 1
// are ignored.
func WithParallelism(n int) Option {
	return func(i *Installer) {
		if n > 0 {
			i.parallelism = n
		}
	}
}

// WithLockName overrides the gate lock name.
func WithLockName(name string) Option {
	return func(i *Installer) { i.lockName = name }
}

// New returns an Installer that records into store under g.
func New(store *manifest.Store, g *gate.Gate, opts ...Option) *Installer {
	i := &Installer{
		store:       store,
		gate:        g,
		resolver:    channel.NewResolver(),
		validator:   validate.New(),
		now:         time.Now,
		scope:       types.ScopeUser,
		limits:      archive.DefaultLimits(),
		parallelism: defaultParallelism,
		lockName:    DefaultLockName,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.OrDiscard(i.logger)
	return i
}

// Resolve turns a channel string into a concrete version of c.
func (i *Installer) Resolve(ctx context.Context, ch string, c types.Component, idx *releases.Index) (version.Version, error) {
	if err := ctx.Err(); err != nil {
		return version.Version{}, err
	}
	return i.resolver.ResolveString(ch, c, idx)
}

// IsInstalled reports whether (root, c, v) is recorded. It takes no lock:
// the manifest is replaced atomically, so a lone read is always consistent.
func (i *Installer) IsInstalled(ctx context.Context, root types.InstallRoot, c types.Component, v version.Version) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return i.store.Contains(root, c, v)
}

// ListInstalled returns the recorded installs accepted by f.
func (i *Installer) ListInstalled(ctx context.Context, f manifest.Filter) (iter.Seq[manifest.Record], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return i.store.List(f)
}

// Install installs c at the concrete version v into root using src. An
// install that is already recorded returns OutcomeSkipped without
// fetching. On failure or cancellation nothing is recorded and every file
// this call created is removed.
func (i *Installer) Install(ctx context.Context, root types.InstallRoot, c types.Component, v version.Version, src archive.Source) (*Result, error) {
	tr := i.track(root, c, v)
	return i.install(ctx, tr, i.scope, src)
}

// InstallChannel resolves req.Channel against idx and installs the result.
func (i *Installer) InstallChannel(ctx context.Context, req Request, idx *releases.Index, src archive.Source) (*Result, error) {
	tr := i.track(req.Root, req.Component, version.Version{})
	v, err := i.Resolve(ctx, req.Channel, req.Component, idx)
	if err != nil {
		return nil, tr.fail(err)
	}
	tr.v = v
	i.logger.Debug("resolved channel", "channel", req.Channel, "component", req.Component, "version", v)
	return i.install(ctx, tr, scopeOr(req.Scope, i.scope), src)
}

// InstallAll runs every request concurrently, bounded by the configured
// parallelism. One failure does not stop the others; the returned error
// joins every failure.
func (i *Installer) InstallAll(ctx context.Context, reqs []Request, idx *releases.Index, src archive.Source) ([]BatchResult, error) {
	results := make([]BatchResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(i.parallelism)
	for n, req := range reqs {
		g.Go(func() error {
			res, err := i.InstallChannel(ctx, req, idx, src)
			results[n] = BatchResult{Request: req, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never fail; errors live in results

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", r.Request.Component, r.Request.Channel, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (i *Installer) track(root types.InstallRoot, c types.Component, v version.Version) *tracker {
	return &tracker{
		state:    StateResolving,
		root:     root,
		c:        c,
		v:        v,
		observer: i.observer,
		log:      func(msg string, kv ...any) { i.logger.Debug(msg, kv...) },
	}
}

func (i *Installer) install(ctx context.Context, tr *tracker, scope types.Scope, src archive.Source) (*Result, error) {
	root, c, v := tr.root, tr.c, tr.v
	if err := checkTarget(root, c, v, scope); err != nil {
		return nil, tr.fail(err)
	}

	tr.to(StateCheckingManifest, nil)
	if rec, found, err := i.lookup(ctx, root, c, v); err != nil {
		return nil, tr.fail(err)
	} else if found {
		return i.skipped(tr, rec), nil
	}

	tr.to(StateFetching, nil)
	fetched, err := src.Fetch(ctx, archive.Request{Component: c, Version: v, Architecture: root.Architecture})
	if err == nil && fetched == nil {
		err = errors.New("archive source returned nothing")
	}
	if err != nil {
		return nil, tr.fail(i.stageError(tr, StateFetching, err))
	}
	defer func() {
		if err := fetched.Release(); err != nil {
			i.logger.Warn("cannot remove downloaded archive", "path", fetched.Path, "err", err)
		}
	}()

	tr.to(StateExtracting, nil)
	staging, cleanup, err := i.newStaging(ctx, string(root.Path))
	if err != nil {
		return nil, tr.fail(i.stageError(tr, StateExtracting, err))
	}
	defer func() {
		if err := cleanup(); err != nil {
			i.logger.Warn("cannot remove staging directory", "path", staging, "err", err)
		}
	}()
	if err := archive.Extract(ctx, fetched.Path, fetched.Format, staging, i.limits); err != nil {
		return nil, tr.fail(i.stageError(tr, StateExtracting, err))
	}

	tr.to(StateValidating, nil)
	if err := i.validator.Validate(staging, c, v); err != nil {
		return nil, tr.fail(fmt.Errorf("validating extracted archive: %w", err))
	}

	tr.to(StateCommitting, nil)
	res, err := i.commit(ctx, root, c, v, scope, staging)
	if err != nil {
		return nil, tr.fail(err)
	}
	if res.Outcome == OutcomeSkipped {
		return i.skipped(tr, res.Record), nil
	}
	tr.to(StateDone, nil)
	i.logger.Info("installed", "component", c, "version", v, "root", root.Path)
	return res, nil
}

func (i *Installer) skipped(tr *tracker, rec manifest.Record) *Result {
	tr.to(StateSkipped, ErrAlreadyInstalled)
	tr.to(StateDone, nil)
	i.logger.Info("already installed", "component", tr.c, "version", tr.v, "root", tr.root.Path)
	return &Result{Outcome: OutcomeSkipped, Record: rec}
}

// lookup checks the manifest under the gate.
func (i *Installer) lookup(ctx context.Context, root types.InstallRoot, c types.Component, v version.Version) (rec manifest.Record, found bool, err error) {
	err = i.gate.Do(ctx, i.lockName, func(context.Context) error {
		m, loadErr := i.store.Load()
		if loadErr != nil {
			return loadErr
		}
		rec, found = m.Find(root, c, v)
		return nil
	})
	return rec, found, err
}

// commit re-checks the manifest under the gate, then merges staging into
// the root and records the install. Any failure after the merge started
// removes the paths the merge created.
func (i *Installer) commit(ctx context.Context, root types.InstallRoot, c types.Component, v version.Version, scope types.Scope, staging string) (*Result, error) {
	var res *Result
	err := i.gate.Do(ctx, i.lockName, func(ctx context.Context) error {
		m, err := i.store.Load()
		if err != nil {
			return err
		}
		if rec, ok := m.Find(root, c, v); ok {
			res = &Result{Outcome: OutcomeSkipped, Record: rec}
			return nil
		}
		rec, err := manifest.NewRecord(root, c, v, scope, i.now())
		if err != nil {
			return err
		}

		created, err := merge(staging, string(root.Path))
		if err == nil {
			err = ctx.Err()
		}
		if err == nil {
			if vErr := i.validator.Validate(string(root.Path), c, v); vErr != nil {
				err = fmt.Errorf("validating install root: %w", vErr)
			}
		}
		if err == nil {
			err = i.store.Record(rec)
		}
		if err != nil {
			if rbErr := rollback(created); rbErr != nil {
				i.logger.Warn("rollback incomplete", "root", root.Path, "err", rbErr)
			}
			return err
		}
		res = &Result{Outcome: OutcomeInstalled, Record: rec}
		return nil
	})
	return res, err
}

func (i *Installer) stageError(tr *tracker, stage State, err error) error {
	return &StageError{Stage: stage, Root: tr.root, Component: tr.c, Version: tr.v, Err: err}
}

func checkTarget(root types.InstallRoot, c types.Component, v version.Version, scope types.Scope) error {
	if !v.IsConcrete() {
		return fmt.Errorf("%w: %s", ErrNotConcrete, v)
	}
	if err := errors.Join(root.Validate(), c.Validate(), scope.Validate()); err != nil {
		return err
	}
	if !filepath.IsAbs(string(root.Path)) {
		return fmt.Errorf("%w: %s", ErrRelativeRoot, root.Path)
	}
	return nil
}

func scopeOr(s, fallback types.Scope) types.Scope {
	if s == "" {
		return fallback
	}
	return s
}

// newStaging creates a private extraction directory under root. The shared
// staging parent, and root when missing, are created under the gate so a
// concurrent cleanup cannot remove them mid-MkdirAll. cleanup removes the
// private directory, then under the gate removes the staging parent when
// empty and root if this call created it and it is still empty.
func (i *Installer) newStaging(ctx context.Context, root string) (dir string, cleanup func() error, err error) {
	dir = filepath.Join(root, StagingDirName, uuid.NewString())
	var createdRoot bool
	err = i.gate.Do(ctx, i.lockName, func(context.Context) error {
		_, statErr := os.Stat(root)
		createdRoot = errors.Is(statErr, os.ErrNotExist)
		return os.MkdirAll(dir, 0o755)
	})
	if err != nil {
		return "", nil, fmt.Errorf("creating staging directory: %w", err)
	}
	cleanup = func() error {
		err := os.RemoveAll(dir)
		tidyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stagingTidyTimeout)
		defer cancel()
		tidyErr := i.gate.Do(tidyCtx, i.lockName, func(context.Context) error {
			_ = os.Remove(filepath.Dir(dir))
			if createdRoot {
				_ = os.Remove(root)
			}
			return nil
		})
		if tidyErr != nil {
			i.logger.Debug("staging parent left in place", "root", root, "err", tidyErr)
		}
		return err
	}
	return dir, cleanup, nil
}
