// Package parallel runs CPU-bound work on a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// WorkerPool runs submitted tasks on a fixed number of goroutines. A task
// that panics is recovered and counted; the worker keeps running.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // guards taskQueue against close during send
	closed    bool
	panics    atomic.Uint64
	logger    logging.Logger
}

// NewWorkerPool starts workers goroutines. A non-positive count means one
// per CPU.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		logger:    logging.DefaultLogger().With(logging.Component("parallel")),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.panics.Add(1)
			wp.logger.Error("task panicked", logging.Any("panic", r))
		}
	}()
	task()
}

// Submit queues a task, blocking while the queue is full. It returns false
// once the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// Close stops accepting tasks and waits for queued ones to finish. It is
// safe to call more than once.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Panics returns how many tasks panicked.
func (wp *WorkerPool) Panics() uint64 {
	return wp.panics.Load()
}

// Chunks splits n items into at most parts contiguous [start, end) ranges
// of near-equal size.
func Chunks(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	parts = max(1, min(parts, n))
	out := make([][2]int, 0, parts)
	size, rem := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rem {
			end++
		}
		out = append(out, [2]int{start, end})
		start = end
	}
	return out
}

// Map runs fn over every chunk of n items on a fresh pool and returns the
// per-chunk results in chunk order.
func Map[T any](n, workers int, fn func(start, end int) T) []T {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunks := Chunks(n, workers)
	results := make([]T, len(chunks))

	pool := NewWorkerPool(min(workers, len(chunks)))
	for i, c := range chunks {
		pool.Submit(func() { results[i] = fn(c[0], c[1]) })
	}
	pool.Close()
	return results
}
