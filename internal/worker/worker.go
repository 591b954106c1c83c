// Package worker runs fire-and-forget tasks on a bounded pool so background
// persistence and indexing never block a chat response, and their failures
// always reach the log.
package worker

import (
	"fmt"

	"github.com/panjf2000/ants/v2"

	"github.com/studioverse/tutormind/internal/logger"
)

// DefaultSize bounds concurrent background tasks.
const DefaultSize = 16

// Pool wraps a bounded goroutine pool. Submitted tasks may outlive the
// request that spawned them.
type Pool struct {
	pool *ants.Pool
}

// NewPool creates a pool with the given capacity.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		size = DefaultSize
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Pool{pool: p}, nil
}

// Submit schedules task for asynchronous execution. The name identifies the
// task in logs. If the pool cannot accept it the task runs synchronously,
// so completion is guaranteed either way.
func (p *Pool) Submit(name string, task func() error) {
	run := func() {
		if err := task(); err != nil {
			logger.Error("Background task %s failed: %v", name, err)
		}
	}
	if err := p.pool.Submit(run); err != nil {
		logger.Warn("Worker pool rejected task %s, running inline: %v", name, err)
		run()
	}
}

// Release stops the pool. Pending tasks already submitted keep running.
func (p *Pool) Release() {
	p.pool.Release()
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}
