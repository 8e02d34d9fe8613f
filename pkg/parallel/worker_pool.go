// Package parallel runs independent tasks on a bounded pool of goroutines.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	logger    logging.Logger
	panics    atomic.Int64
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")

	// ErrPoolClosed is returned by ForEach when the pool no longer accepts tasks.
	ErrPoolClosed = errors.New("worker pool closed")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// PanicError wraps a value recovered from a task started by ForEach.
type PanicError struct {
	Index int
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Value)
}

// Option configures a WorkerPool.
type Option func(*WorkerPool)

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger logging.Logger) Option {
	return func(wp *WorkerPool) { wp.logger = logging.OrNop(logger) }
}

// NewWorkerPool creates a new worker pool with specified number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewWorkerPool(workers int, opts ...Option) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2), // Buffer for 2x workers
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(pool)
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.workers }

// Panics returns how many task panics have been recovered so far.
func (wp *WorkerPool) Panics() int64 { return wp.panics.Load() }

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// Recover from panics in tasks to prevent worker crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.panics.Add(1)
					wp.logger.Error("worker panic recovered",
						logging.Component("parallel"),
						logging.Any("panic", r))
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the worker pool
// Returns false if the pool is closed, true if task was submitted
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	// Safe to send because we hold the lock and pool is not closed
	wp.taskQueue <- task
	return true
}

// ForEach runs fn(i) for every i in [0, n) on the pool and waits for all of
// them. Submission stops once ctx is done. The returned error is the first
// failure by index, so it does not depend on scheduling; a panic inside fn is
// reported as a *PanicError at that index. fn must not call ForEach on the
// same pool.
func (wp *WorkerPool) ForEach(ctx context.Context, n int, fn func(i int) error) error {
	errs := make([]error, n)
	var batch sync.WaitGroup

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			break
		}
		idx := i
		batch.Add(1)
		ok := wp.Submit(func() {
			defer batch.Done()
			defer func() {
				if r := recover(); r != nil {
					wp.panics.Add(1)
					errs[idx] = &PanicError{Index: idx, Value: r, Stack: debug.Stack()}
				}
			}()
			errs[idx] = fn(idx)
		})
		if !ok {
			batch.Done()
			errs[i] = ErrPoolClosed
			break
		}
	}
	batch.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		// Acquire write lock before closing
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Wait waits for all submitted tasks to complete
func (wp *WorkerPool) Wait() {
	wp.Close()
}
