package jobs

import (
	"sync"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/metrics"
)

// Queue is an unbounded FIFO of float jobs. Producers push from any
// goroutine; a single processor pops.
type Queue struct {
	mu   sync.Mutex
	jobs []*interfaces.Job
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a job to the back of the queue
func (q *Queue) Push(job *interfaces.Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	metrics.PendingJobs.Set(float64(len(q.jobs)))
}

// Pop removes the front job. It reports false when the queue is empty.
func (q *Queue) Pop() (*interfaces.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, false
	}
	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	// the gauge is set under the lock so concurrent updates land in order
	metrics.PendingJobs.Set(float64(len(q.jobs)))
	return job, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Pending returns a copy of the queued jobs in dequeue order
func (q *Queue) Pending() []*interfaces.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*interfaces.Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}
