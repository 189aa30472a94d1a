package ranking

import (
	"context"
	"time"
)

// Scheduler runs the engine on a fixed interval between Start and Stop.
type Scheduler struct {
	engine   *Engine
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	return &Scheduler{
		engine:   engine,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// first pass runs immediately so a fresh deploy ranks without
		// waiting a full interval
		s.runOnce()

		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if err := s.engine.Run(ctx); err != nil {
		log.Errorw("ranking pass failed", "err", err)
	}
}
