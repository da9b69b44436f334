package logging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jmylchreest/slog-logfilter"
)

// DefaultFiltersKey is the object holding the runtime filter list.
const DefaultFiltersKey = "config/logfilters.json"

// ObjectGetter is the subset of *s3.Client the filter loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// FilterLoaderConfig configures a FilterLoader.
type FilterLoaderConfig struct {
	Client       ObjectGetter
	Bucket       string
	Key          string
	Interval     time.Duration // default 5m
	ErrorBackoff time.Duration // default 1m
	Logger       *slog.Logger
}

// FilterLoader polls a JSON filter list from the media bucket and applies it
// to the process logger. The last good filter set stays in place when a
// fetch fails.
type FilterLoader struct {
	client       ObjectGetter
	bucket       string
	key          string
	interval     time.Duration
	errorBackoff time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.RWMutex
	etag        string
	lastFetch   time.Time
	lastCheck   time.Time
	lastError   time.Time
	loaded      bool
	filterCount int

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewFilterLoader creates a filter loader. A nil Client disables it.
func NewFilterLoader(cfg FilterLoaderConfig) *FilterLoader {
	if cfg.Key == "" {
		cfg.Key = DefaultFiltersKey
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &FilterLoader{
		client:       cfg.Client,
		bucket:       cfg.Bucket,
		key:          cfg.Key,
		interval:     cfg.Interval,
		errorBackoff: cfg.ErrorBackoff,
		logger:       cfg.Logger.With("component", "logfilters"),
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}
}

// Start fetches the filters once and then polls until Stop or ctx is done.
func (l *FilterLoader) Start(ctx context.Context) {
	if l.client == nil || l.bucket == "" {
		l.logger.Info("runtime log filters disabled (no bucket)")
		return
	}

	l.Refresh(ctx)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Refresh(ctx)
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	l.logger.Info("runtime log filters enabled",
		"bucket", l.bucket,
		"key", l.key,
		"interval", l.interval.String(),
	)
}

// Stop ends polling. It is safe to call more than once.
func (l *FilterLoader) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	l.wg.Wait()
}

// Refresh performs one conditional fetch.
func (l *FilterLoader) Refresh(ctx context.Context) {
	now := l.now()

	l.mu.Lock()
	if !l.lastError.IsZero() && now.Sub(l.lastError) < l.errorBackoff {
		l.mu.Unlock()
		return
	}
	etag := l.etag
	l.mu.Unlock()

	input := &s3.GetObjectInput{Bucket: &l.bucket, Key: &l.key}
	if etag != "" {
		quoted := `"` + etag + `"`
		input.IfNoneMatch = &quoted
	}

	resp, err := l.client.GetObject(ctx, input)
	if err != nil {
		l.handleError(now, err)
		return
	}
	defer resp.Body.Close()

	var filters []logfilter.LogFilter
	if err := json.NewDecoder(resp.Body).Decode(&filters); err != nil {
		l.markError(now)
		l.logger.Error("invalid log filter document", "key", l.key, "error", err)
		return
	}

	SetFilters(filters)

	newEtag := ""
	if resp.ETag != nil {
		newEtag = strings.Trim(*resp.ETag, `"`)
	}

	l.mu.Lock()
	l.loaded = true
	l.etag = newEtag
	l.lastFetch = now
	l.lastCheck = now
	l.lastError = time.Time{}
	l.filterCount = len(filters)
	l.mu.Unlock()

	active := 0
	for _, f := range filters {
		if f.IsActive() {
			active++
		}
	}
	l.logger.Info("log filters applied",
		"etag", newEtag,
		"previous_etag", etag,
		"total_filters", len(filters),
		"active_filters", active,
	)
}

func (l *FilterLoader) handleError(now time.Time, err error) {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		l.markError(now)
		l.logger.Debug("no log filter document", "bucket", l.bucket, "key", l.key)
		return
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotModified" {
		l.mu.Lock()
		l.lastCheck = now
		l.mu.Unlock()
		return
	}

	l.markError(now)
	l.logger.Error("failed to fetch log filters", "bucket", l.bucket, "key", l.key, "error", err)
}

func (l *FilterLoader) markError(now time.Time) {
	l.mu.Lock()
	l.lastError = now
	l.lastCheck = now
	l.mu.Unlock()
}

// FilterStats describes the loader state.
type FilterStats struct {
	Loaded      bool      `json:"loaded"`
	FilterCount int       `json:"filter_count"`
	ETag        string    `json:"etag,omitempty"`
	LastFetch   time.Time `json:"last_fetch"`
	LastCheck   time.Time `json:"last_check"`
}

// Stats returns the current loader state.
func (l *FilterLoader) Stats() FilterStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return FilterStats{
		Loaded:      l.loaded,
		FilterCount: l.filterCount,
		ETag:        l.etag,
		LastFetch:   l.lastFetch,
		LastCheck:   l.lastCheck,
	}
}
