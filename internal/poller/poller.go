// Package poller runs a function on a fixed interval until stopped.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

var pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rider_polls_total",
	Help: "Poll iterations by poller and result",
}, []string{"poller", "result"})

// Func is one poll iteration. ctx is cancelled once the poller stops, so
// results must only be published while ctx.Err() == nil.
type Func func(ctx context.Context) error

// Poller calls fn immediately and then every interval.
type Poller struct {
	name     string
	interval time.Duration
	fn       Func
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a stopped poller.
func New(name string, interval time.Duration, fn Func, log *zap.Logger) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger.OrNop(log).With(zap.String("poller", name)),
	}
}

// Start launches the loop. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.run(ctx, p.done)
}

// Stop cancels the loop and waits for the current iteration to return.
// It must not be called from inside fn.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.fn(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		pollsTotal.WithLabelValues(p.name, "error").Inc()
		p.logger.Warn("poll failed", zap.Error(err))
		return
	}
	pollsTotal.WithLabelValues(p.name, "ok").Inc()
}
