// Package parallel provides the bounded worker pool that fans out batch
// writes to the graph store.
package parallel

import (
	"log/slog"
	"sync"
)

// MaxWorkers caps the pool size. Batch dispatch is IO-bound; anything past
// this saturates the backend connection pool long before it helps.
const MaxWorkers = 256

// WorkerPool runs queued tasks on a fixed set of goroutines. A pool serves
// one dispatch phase: submit every task, then Wait for the drain. Pools are
// not reusable after Wait or Close.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	logger    *slog.Logger
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // guards taskQueue against close during send
	closed    bool         // protected by mu
}

// NewWorkerPool creates a pool with the given number of workers, clamped to
// [1, MaxWorkers].
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		logger:    logger,
	}

	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

// worker processes tasks from the queue until it closes.
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// A panicking task must not take the worker down with it; the
		// remaining batches still need to run.
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.logger.Error("worker recovered from task panic", "panic", r)
				}
			}()
			task()
		}()
	}
}

// Submit queues a task. It reports false if the pool has been closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close stops intake and waits for in-flight tasks to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Wait drains the pool: all submitted tasks complete before it returns.
// The pool is closed afterwards.
func (wp *WorkerPool) Wait() {
	wp.Close()
}
