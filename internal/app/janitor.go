package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/avelex/watchparty/internal/metrics"
)

const (
	defaultJanitorSpec  = "@every 10m"
	defaultDeferral     = 2 * time.Second
	defaultIdleTTL      = time.Hour
	defaultIdleTTLEmpty = 10 * time.Minute
)

// Janitor reclaims media files no longer referenced by any live playback
// state. It runs on a cron cadence plus on demand after teardown events;
// failures are retried with a bounded policy and otherwise left for the
// next periodic pass. Nothing here ever propagates an error to a caller.
type Janitor struct {
	dir   string
	store *RoomStore

	cron         *cron.Cron
	spec         string
	deferDelay   time.Duration
	idleTTL      time.Duration // age threshold while rooms are active
	idleTTLEmpty time.Duration // shorter threshold when no rooms exist
	retry        RetryPolicy
	now          func() time.Time
}

type JanitorOption func(*Janitor)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) JanitorOption {
	return func(j *Janitor) {
		if c != nil {
			j.cron = c
		}
	}
}

// WithNow overrides the clock used for age comparisons.
func WithNow(now func() time.Time) JanitorOption {
	return func(j *Janitor) {
		if now != nil {
			j.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the periodic sweep.
func WithSchedule(spec string) JanitorOption {
	return func(j *Janitor) {
		if spec != "" {
			j.spec = spec
		}
	}
}

// WithDeferral adjusts how long an on-demand reclamation waits before the
// first deletion attempt. Zero or negative runs it synchronously.
func WithDeferral(d time.Duration) JanitorOption {
	return func(j *Janitor) { j.deferDelay = d }
}

// WithTTLs sets the age thresholds for the periodic sweep.
func WithTTLs(active, empty time.Duration) JanitorOption {
	return func(j *Janitor) {
		if active > 0 {
			j.idleTTL = active
		}
		if empty > 0 {
			j.idleTTLEmpty = empty
		}
	}
}

// WithRetry overrides the deletion retry policy.
func WithRetry(p RetryPolicy) JanitorOption {
	return func(j *Janitor) {
		if p.Attempts > 0 {
			j.retry = p
		}
	}
}

func NewJanitor(dir string, store *RoomStore, opts ...JanitorOption) *Janitor {
	j := &Janitor{
		dir:          dir,
		store:        store,
		spec:         defaultJanitorSpec,
		deferDelay:   defaultDeferral,
		idleTTL:      defaultIdleTTL,
		idleTTLEmpty: defaultIdleTTLEmpty,
		retry:        RetryPolicy{Attempts: 2, Delay: 500 * time.Millisecond},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.cron == nil {
		j.cron = cron.New()
	}
	return j
}

// Start schedules the periodic sweep.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.Sweep); err != nil {
		return err
	}
	j.cron.Start()
	log.Info().Str("module", "app.janitor").Str("dir", j.dir).Str("spec", j.spec).Msg("janitor started")
	return nil
}

// Stop halts the cadence and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep scans the asset directory and deletes unreferenced files past the
// age threshold. When no rooms are live at all, the shorter threshold
// applies: nothing can reference those files anymore.
func (j *Janitor) Sweep() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.janitor").Interface("panic", r).Msg("sweep recovered")
		}
	}()

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.janitor").Str("dir", j.dir).Msg("sweep: read dir")
		return
	}

	refs := j.store.ReferencedAssets()
	ttl := j.idleTTL
	if j.store.Count() == 0 {
		ttl = j.idleTTLEmpty
	}
	now := j.now()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if _, referenced := refs[path]; referenced {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < ttl {
			continue
		}
		j.removeFile(path)
	}
}

// ReclaimAsset is the on-demand path used after a teardown event. The
// short deferral reduces contention with in-flight stream closes.
func (j *Janitor) ReclaimAsset(path string) {
	if j.deferDelay <= 0 {
		j.reclaimNow(path)
		return
	}
	time.AfterFunc(j.deferDelay, func() { j.reclaimNow(path) })
}

func (j *Janitor) reclaimNow(path string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.janitor").Interface("panic", r).Msg("reclaim recovered")
		}
	}()
	// An upload may have re-referenced the path between teardown and the
	// deferred attempt.
	if _, referenced := j.store.ReferencedAssets()[path]; referenced {
		return
	}
	j.removeFile(path)
}

func (j *Janitor) removeFile(path string) {
	err := j.retry.Do(func() error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
	if err != nil {
		// Locked or busy: the next periodic pass gets another chance.
		log.Warn().Err(err).Str("module", "app.janitor").Str("path", path).Msg("reclaim deferred")
		return
	}
	metrics.AssetsReclaimed.Inc()
	log.Info().Str("module", "app.janitor").Str("path", path).Msg("asset reclaimed")
}
