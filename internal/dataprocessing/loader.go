package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"papertrack/pkg/contracts/domain"
)

// DefaultCacheSize is the number of workbook versions kept in memory
const DefaultCacheSize = 4

// LoadObserver receives loader events. Implementations must be safe for concurrent use.
type LoadObserver interface {
	CacheHit(ctx context.Context)
	CacheMiss(ctx context.Context)
	Loaded(ctx context.Context, duration time.Duration, papers int, err error)
}

type noopObserver struct{}

func (noopObserver) CacheHit(context.Context)                             {}
func (noopObserver) CacheMiss(context.Context)                            {}
func (noopObserver) Loaded(context.Context, time.Duration, int, error) {}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithCacheSize bounds the number of cached snapshots
func WithCacheSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.cacheSize = n
		}
	}
}

// WithObserver attaches a metrics observer
func WithObserver(o LoadObserver) LoaderOption {
	return func(l *Loader) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithLogger sets the loader logger
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader memoizes workbook snapshots by file identity (path, modification
// time, size). Concurrent requests for the same identity share one parse.
type Loader struct {
	path      string
	parser    *SheetParser
	cacheSize int
	cache     *lru.Cache[string, *domain.Snapshot]
	group     singleflight.Group
	gen       atomic.Uint64
	observer  LoadObserver
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewLoader creates a loader for the workbook at path
func NewLoader(path string, parser *SheetParser, opts ...LoaderOption) (*Loader, error) {
	if parser == nil {
		return nil, errors.New("loader requires a sheet parser")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve workbook path: %w", err)
	}

	l := &Loader{
		path:      abs,
		parser:    parser,
		cacheSize: DefaultCacheSize,
		observer:  noopObserver{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("papertrack/dataprocessing"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(slog.String("component", "workbook_loader"))

	l.cache, err = lru.New[string, *domain.Snapshot](l.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	return l, nil
}

// Path returns the absolute workbook path
func (l *Loader) Path() string {
	return l.path
}

// Load returns the snapshot for the workbook's current identity, parsing it
// at most once per identity. Errors are not cached.
func (l *Loader) Load(ctx context.Context) (*domain.Snapshot, error) {
	key := l.identity()

	if snap, ok := l.cache.Get(key); ok {
		l.observer.CacheHit(ctx)
		return snap, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		if snap, ok := l.cache.Get(key); ok {
			return snap, nil
		}
		// shared by every waiter, so one caller's cancellation must not abort it
		return l.read(context.WithoutCancel(ctx), key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Snapshot), nil
	}
}

// Invalidate drops every cached snapshot. Parses already in flight finish
// but their results are not served to later calls.
func (l *Loader) Invalidate() {
	l.gen.Add(1)
	l.cache.Purge()
	l.logger.Info("snapshot cache invalidated")
}

// Refresh invalidates the cache and loads the workbook again
func (l *Loader) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	l.Invalidate()
	return l.Load(ctx)
}

// CachedVersions returns the number of snapshots currently held
func (l *Loader) CachedVersions() int {
	return l.cache.Len()
}

func (l *Loader) read(ctx context.Context, key string) (*domain.Snapshot, error) {
	l.observer.CacheMiss(ctx)

	ctx, span := l.tracer.Start(ctx, "workbook.load",
		trace.WithAttributes(attribute.String("workbook.path", l.path)))
	defer span.End()

	start := time.Now()
	snap, err := ReadWorkbook(ctx, l.path, l.parser, l.logger)
	elapsed := time.Since(start)

	if err != nil {
		l.observer.Loaded(ctx, elapsed, 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.ErrorContext(ctx, "workbook load failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", elapsed))
		return nil, err
	}

	l.observer.Loaded(ctx, elapsed, len(snap.Papers), nil)
	span.SetAttributes(
		attribute.Int("workbook.papers", len(snap.Papers)),
		attribute.Bool("workbook.missing", snap.SourceMissing))

	l.cache.Add(key, snap)
	l.logger.InfoContext(ctx, "workbook loaded",
		slog.String("snapshot_id", snap.ID),
		slog.Int("papers", len(snap.Papers)),
		slog.Duration("duration", elapsed))

	return snap, nil
}

// identity keys the cache by generation and file version
func (l *Loader) identity() string {
	gen := l.gen.Load()
	info, err := os.Stat(l.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("%d|%s|missing", gen, l.path)
	case err != nil:
		return fmt.Sprintf("%d|%s|unreadable", gen, l.path)
	default:
		return fmt.Sprintf("%d|%s|%d|%d", gen, l.path, info.ModTime().UnixNano(), info.Size())
	}
}
