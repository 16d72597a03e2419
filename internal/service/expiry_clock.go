package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/pkg/jobs"
)

// ClockConfig tunes an ExpiryClock.
type ClockConfig struct {
	Tick     time.Duration
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
}

// ExpiryClock recomputes a pass countdown on a fixed tick without touching the
// network. Each view owns its clock; after Stop returns no callback runs.
type ExpiryClock struct {
	endDate models.Date
	loc     *time.Location
	now     func() time.Time
	onTick  func(models.Countdown)
	poller  *jobs.Poller

	mu   sync.Mutex
	last models.Countdown
}

// NewExpiryClock builds a clock for endDate. onTick may be nil when only
// Snapshot is used.
func NewExpiryClock(endDate models.Date, onTick func(models.Countdown), cfg ClockConfig) *ExpiryClock {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &ExpiryClock{
		endDate: endDate,
		loc:     cfg.Location,
		now:     cfg.Now,
		onTick:  onTick,
	}
	c.poller = jobs.NewPoller("expiry-clock", c.tick, jobs.PollerConfig{
		Interval:  cfg.Tick,
		Immediate: true,
		Logger:    cfg.Logger,
	})
	return c
}

// Start begins ticking until ctx is done or Stop is called.
func (c *ExpiryClock) Start(ctx context.Context) {
	c.poller.Start(ctx)
}

// Stop halts the clock and waits for an in-progress callback.
func (c *ExpiryClock) Stop() {
	c.poller.Stop()
}

// Running reports whether the clock is ticking.
func (c *ExpiryClock) Running() bool {
	return c.poller.Running()
}

// Snapshot computes the countdown for the current instant.
func (c *ExpiryClock) Snapshot() models.Countdown {
	return models.ComputeCountdown(c.endDate, c.now(), c.loc)
}

// Last returns the countdown emitted on the most recent tick.
func (c *ExpiryClock) Last() models.Countdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *ExpiryClock) tick(ctx context.Context) error {
	countdown := c.Snapshot()
	c.mu.Lock()
	c.last = countdown
	c.mu.Unlock()
	if c.onTick != nil && ctx.Err() == nil {
		c.onTick(countdown)
	}
	return nil
}
