package qsim

import (
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

// JobResult wraps the outcome of a job with its metadata.
type JobResult struct {
	Value     any
	Error     error
	CreatedAt time.Time
	TTL       time.Duration
}

/*
ResultSpace hands job results from workers to whoever awaits them. A result is
delivered exactly once: straight to waiting channels when there are any,
otherwise it is parked until the first Await claims it or its TTL runs out.
*/
type ResultSpace struct {
	mu      sync.Mutex
	values  map[string]JobResult
	waiting map[string][]chan JobResult

	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
	wg              sync.WaitGroup
}

func newResultSpace(cleanupInterval time.Duration) *ResultSpace {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	rs := &ResultSpace{
		values:          make(map[string]JobResult),
		waiting:         make(map[string][]chan JobResult),
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
	}

	rs.wg.Add(1)
	go func() {
		defer rs.wg.Done()
		rs.cleanup()
	}()

	return rs
}

// Store records a job result and wakes anyone awaiting it.
func (rs *ResultSpace) Store(id string, value any, err error, ttl time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	result := JobResult{
		Value:     value,
		Error:     err,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}

	channels, ok := rs.waiting[id]
	if !ok {
		rs.values[id] = result
		return
	}

	for _, ch := range channels {
		ch <- result
		close(ch)
	}
	delete(rs.waiting, id)
	errnie.Debug("delivered result for job %s to %d waiters", id, len(channels))
}

// Await returns a channel that receives the result once it is available.
func (rs *ResultSpace) Await(id string) chan JobResult {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ch := make(chan JobResult, 1)

	if result, ok := rs.values[id]; ok {
		delete(rs.values, id)
		ch <- result
		close(ch)
		return ch
	}

	rs.waiting[id] = append(rs.waiting[id], ch)
	return ch
}

// Pending returns the number of parked results and awaited ids.
func (rs *ResultSpace) Pending() (values, waiting int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.values), len(rs.waiting)
}

func (rs *ResultSpace) cleanup() {
	ticker := time.NewTicker(rs.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.done:
			return
		case <-ticker.C:
			rs.mu.Lock()
			rs.cleanupExpiredValues()
			rs.mu.Unlock()
		}
	}
}

func (rs *ResultSpace) cleanupExpiredValues() {
	now := time.Now()
	for id, result := range rs.values {
		if result.TTL > 0 && now.Sub(result.CreatedAt) > result.TTL {
			delete(rs.values, id)
		}
	}
}

// Close stops the cleanup loop and drops parked results.
func (rs *ResultSpace) Close() {
	rs.closeOnce.Do(func() {
		close(rs.done)
		rs.wg.Wait()

		rs.mu.Lock()
		defer rs.mu.Unlock()

		rs.values = make(map[string]JobResult)
		for id, channels := range rs.waiting {
			for _, ch := range channels {
				close(ch)
			}
			delete(rs.waiting, id)
		}
	})
}
