package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is the unit of work executed on every tick.
type Task func(context.Context) error

// PollerConfig configures a Poller.
type PollerConfig struct {
	Interval time.Duration
	// Immediate runs the task once as soon as the poller starts.
	Immediate bool
	// Timeout bounds a single run; zero means the run only ends with the poller.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Poller runs a task on a fixed interval until stopped. It is owned by the
// view that started it: once Stop returns the task is never invoked again.
type Poller struct {
	name     string
	task     Task
	interval time.Duration
	immed    bool
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewPoller builds a poller for the provided task.
func NewPoller(name string, task Task, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Poller{
		name:     name,
		task:     task,
		interval: cfg.Interval,
		immed:    cfg.Immediate,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// Start begins ticking. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.started = true

	go p.loop(runCtx, p.done)
	p.logger.Sugar().Debugw("poller started", "poller", p.name, "interval", p.interval)
}

// Stop cancels the poller and waits for an in-progress run to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	done := p.done
	p.started = false
	p.mu.Unlock()

	<-done
	p.logger.Sugar().Debugw("poller stopped", "poller", p.name)
}

// Running reports whether the poller is currently ticking.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		if p.done == done {
			p.started = false
		}
		p.mu.Unlock()
		close(done)
	}()

	if p.immed {
		p.run(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p.run(ctx)
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.task(runCtx); err != nil && ctx.Err() == nil {
		p.logger.Sugar().Warnw("poll failed", "poller", p.name, "error", err)
	}
}
