package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bryanwahyu/pitchlens/internal/application"
	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	"github.com/bryanwahyu/pitchlens/internal/metrics"
)

// ErrQueueFull is returned by Submit when the dispatcher cannot take more work.
var ErrQueueFull = errors.New("analysis queue full")

// DispatcherConfig tunes background scheduling of analyses.
type DispatcherConfig struct {
	// Interval between scans for pending pitches and stale sweeps.
	Interval time.Duration
	// BatchSize caps pending pitches picked per scan.
	BatchSize int
	// Concurrency caps analyses running at once.
	Concurrency int
	// RatePerSecond / Burst throttle analysis starts (provider rate limits).
	RatePerSecond float64
	Burst         int
	QueueSize     int
	// StaleAfter moves in_progress pitches older than this to failed.
	StaleAfter time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 1
	}
	if c.Burst <= 0 {
		c.Burst = c.Concurrency
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 10 * time.Minute
	}
	return c
}

// Dispatcher runs analyses in the background: explicit submissions plus a
// periodic scan for pending pitches, bounded and throttled.
type Dispatcher struct {
	service *Service
	repo    pitch.Repository
	cfg     DispatcherConfig
	limiter *rate.Limiter
	queue   chan pitch.ID
	clock   application.Clock
	log     zerolog.Logger
}

// NewDispatcher builds a Dispatcher around svc.
func NewDispatcher(svc *Service, cfg DispatcherConfig, log zerolog.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		service: svc,
		repo:    svc.Repo,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		queue:   make(chan pitch.ID, cfg.QueueSize),
		clock:   svc.Clock,
		log:     log.With().Str("component", "dispatcher").Logger(),
	}
}

// Submit queues one pitch without blocking.
func (d *Dispatcher) Submit(id pitch.ID) error {
	select {
	case d.queue <- id:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run blocks until ctx is done. Cancelling ctx abandons in-flight runs, which
// then end in failed.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.log.Info().
		Dur("interval", d.cfg.Interval).
		Int("concurrency", d.cfg.Concurrency).
		Float64("rate_per_second", d.cfg.RatePerSecond).
		Msg("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			d.log.Info().Msg("dispatcher stopped")
			return nil
		case id := <-d.queue:
			d.start(gctx, g, id)
		case <-ticker.C:
			d.sweep(gctx)
			ids, err := d.pending(gctx)
			if err != nil {
				d.log.Error().Err(err).Msg("listing pending pitches")
				continue
			}
			for _, id := range ids {
				d.start(gctx, g, id)
			}
		}
	}
}

// RunOnce sweeps stale runs and analyses one batch of pending pitches,
// waiting for them to finish. It returns how many analyses were started.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	d.sweep(ctx)
	ids, err := d.pending(ctx)
	if err != nil {
		return 0, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	started := 0
	for _, id := range ids {
		if d.start(gctx, g, id) {
			started++
		}
	}
	return started, g.Wait()
}

func (d *Dispatcher) start(ctx context.Context, g *errgroup.Group, id pitch.ID) bool {
	if err := d.limiter.Wait(ctx); err != nil {
		return false
	}
	g.Go(func() error {
		out, err := d.service.Analyze(ctx, id)
		switch {
		case errors.Is(err, pitch.ErrInvalidTransition):
			d.log.Debug().Str("pitch_id", string(id)).Msg("already taken")
		case err != nil:
			d.log.Warn().Str("pitch_id", string(id)).Str("status", string(out.Status)).Err(err).Msg("analysis did not complete")
		}
		// a failed run must not cancel its siblings
		return nil
	})
	return true
}

func (d *Dispatcher) pending(ctx context.Context) ([]pitch.ID, error) {
	ps, err := d.repo.List(ctx, pitch.ListFilter{Status: pitch.StatusPending, Limit: d.cfg.BatchSize})
	if err != nil {
		return nil, err
	}
	ids := make([]pitch.ID, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// sweep fails in_progress pitches abandoned by a crashed or killed worker.
func (d *Dispatcher) sweep(ctx context.Context) {
	now := d.clock.Now()
	n, err := d.repo.FailStale(ctx, now.Add(-d.cfg.StaleAfter), now)
	if err != nil {
		d.log.Error().Err(err).Msg("stale sweep failed")
		return
	}
	if n > 0 {
		metrics.StaleSwept.Add(float64(n))
		d.log.Warn().Int64("count", n).Msg("stale in_progress pitches marked failed")
	}
}
