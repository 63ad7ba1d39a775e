package adminauth

import (
	"context"
	"sync"
	"time"
)

// sweeper drives [Engine.Sweep] on a fixed interval until the engine is
// closed. Sweep errors are transient by nature (a store hiccup) and are
// retried on the next tick rather than surfaced.
type sweeper struct {
	engine   *Engine
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func startSweeper(engine *Engine, interval time.Duration) *sweeper {
	s := &sweeper{
		engine:   engine,
		interval: interval,
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.engine.Sweep(context.Background())
		case <-s.done:
			return
		}
	}
}

func (s *sweeper) stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
