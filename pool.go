package qsim

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

/*
Q is a fixed-size worker pool. Jobs are handed to the first idle worker and
their results land in a ResultSpace, where callers await them by job id.

The simulator uses it to draw independent shot batches in parallel from a
final distribution that no longer changes.
*/
type Q struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan chan Job
	jobs       chan Job
	space      *ResultSpace
	metrics    *Metrics
	workerMu   sync.Mutex
	workerList []*Worker
	config     *Config
	closeOnce  sync.Once
}

// NewQ starts a pool of size workers.
func NewQ(ctx context.Context, size int, config *Config, metrics *Metrics) *Q {
	if size <= 0 {
		size = 1
	}

	if metrics == nil {
		metrics = NewMetrics()
	}

	ctx, cancel := context.WithCancel(ctx)
	q := &Q{
		ctx:        ctx,
		cancel:     cancel,
		workerList: make([]*Worker, 0, size),
		jobs:       make(chan Job, size*10),
		workers:    make(chan chan Job, size),
		space:      newResultSpace(time.Minute),
		metrics:    metrics,
		config:     config,
	}

	for i := 0; i < size; i++ {
		q.startWorker()
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.manage()
	}()

	errnie.Info("sampling pool started with %d workers", size)
	return q
}

// Pool management
func (q *Q) manage() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			select {
			case <-q.ctx.Done():
				q.space.Store(job.ID, nil, errors.Wrap(q.ctx.Err(), "pool closed"), job.TTL)
				return
			case workerChan := <-q.workers:
				select {
				case workerChan <- job:
				case <-q.ctx.Done():
					q.space.Store(job.ID, nil, errors.Wrap(q.ctx.Err(), "pool closed"), job.TTL)
					return
				}
			case <-time.After(q.getSchedulingTimeout()):
				errnie.Warn("no available workers for job %s, timeout occurred", job.ID)
				q.metrics.recordSchedulingFailure()
				q.space.Store(job.ID, nil, errors.Wrapf(ErrNoAvailableWorkers, "job %s", job.ID), job.TTL)
			}
		}
	}
}

// Schedule queues fn and returns a channel that receives its result.
func (q *Q) Schedule(id string, fn func() (any, error), opts ...JobOption) chan JobResult {
	job := Job{
		ID:        id,
		Fn:        fn,
		StartTime: time.Now(),
	}

	for _, opt := range opts {
		opt(&job)
	}

	ch := q.space.Await(id)

	if err := q.ctx.Err(); err != nil {
		q.metrics.recordBatch(false)
		q.space.Store(id, nil, errors.Wrapf(err, "job %s: pool closed", id), job.TTL)
		return ch
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.getSchedulingTimeout())
	defer cancel()

	select {
	case q.jobs <- job:
		q.metrics.recordBatch(true)
	case <-ctx.Done():
		q.metrics.recordBatch(false)
		q.space.Store(id, nil, errors.Wrapf(ErrNoAvailableWorkers, "job %s scheduling: %v", id, ctx.Err()), job.TTL)
	}

	return ch
}

// Size returns the number of workers.
func (q *Q) Size() int {
	q.workerMu.Lock()
	defer q.workerMu.Unlock()
	return len(q.workerList)
}

func (q *Q) startWorker() {
	q.workerMu.Lock()
	worker := &Worker{
		id:   len(q.workerList),
		pool: q,
		jobs: make(chan Job),
	}
	q.workerList = append(q.workerList, worker)
	count := len(q.workerList)
	q.workerMu.Unlock()

	q.metrics.setWorkers(count)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		worker.run()
	}()
}

func (q *Q) getSchedulingTimeout() time.Duration {
	if q.config != nil && q.config.SchedulingTimeout > 0 {
		return q.config.SchedulingTimeout
	}
	return 5 * time.Second
}

// Close stops every worker and releases the result space.
func (q *Q) Close() {
	if q == nil {
		return
	}

	q.closeOnce.Do(func() {
		q.cancel()
		q.wg.Wait()

		q.workerMu.Lock()
		q.workerList = nil
		q.workerMu.Unlock()
		q.metrics.setWorkers(0)

		q.space.Close()
		errnie.Info("sampling pool closed")
	})
}
