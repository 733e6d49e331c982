package qsim

import (
	"fmt"

	"github.com/theapemachine/errnie"
)

// Worker processes jobs
type Worker struct {
	id   int
	pool *Q
	jobs chan Job
}

// run offers the worker's job channel to the pool until the pool shuts down.
func (w *Worker) run() {
	for {
		select {
		case <-w.pool.ctx.Done():
			return
		case w.pool.workers <- w.jobs:
			select {
			case job := <-w.jobs:
				result, err := w.processJob(job)
				w.pool.space.Store(job.ID, result, err, job.TTL)
			case <-w.pool.ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) processJob(job Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
			errnie.Warn("worker %d: %v", w.id, err)
		}
	}()

	return job.Fn()
}
