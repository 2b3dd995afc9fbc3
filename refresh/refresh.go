// Package refresh keeps a session's rates up to date by polling a provider.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"go-currency-exchange/domain"
	"go-currency-exchange/provider"
)

// DefaultInterval how often rates are fetched when no interval is configured
const DefaultInterval = 10 * time.Second

// Sink receives every rate table fetched successfully. exchange.Service is one.
type Sink interface {
	ApplyRates(ctx context.Context, rates domain.Rates) error
}

// Scheduler fetches rates once when started and then on a fixed interval.
//
// Fetches run one after the other on the scheduler's goroutine. Ticks are
// time based: if a fetch takes longer than the interval, the ticks missed
// meanwhile are dropped and the next fetch starts as soon as it returns.
type Scheduler struct {
	// interval between two fetches
	interval time.Duration

	// timeout for one fetch, none when zero
	timeout time.Duration

	provider provider.Service
	sink     Sink
	logger   log.Logger
}

// New constructs a valid Scheduler
func New(interval, timeout time.Duration, p provider.Service, sink Sink, logger log.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		timeout:  timeout,
		provider: p,
		sink:     sink,
		logger:   logger,
	}
}

// Run fetches immediately and then every interval until ctx is done
func (s *Scheduler) Run(ctx context.Context) {
	s.refreshNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshNow(ctx)
		case <-ctx.Done():
			level.Info(s.logger).Log("msg", "shutting down periodic refresh")
			return
		}
	}
}

// Start runs the scheduler on a new goroutine. stop cancels it and waits for
// it to return; it is safe to call more than once.
func (s *Scheduler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// refreshNow fetches and applies rates once. A failure is logged and
// otherwise ignored: the session keeps its previous rates.
func (s *Scheduler) refreshNow(ctx context.Context) bool {
	fetchCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rates, err := s.provider.Latest(fetchCtx)
	if err != nil {
		// Don't return an error, just log and hope this is a transient error
		level.Warn(s.logger).Log("msg", "periodic refresh failed", "err", err)
		return false
	}

	if err := s.sink.ApplyRates(ctx, rates); err != nil {
		level.Warn(s.logger).Log("msg", "rates not applied", "err", err)
		return false
	}
	return true
}
