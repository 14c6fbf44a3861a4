package systems

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/showroom/engine/core"
)

// JobTask describes a unit of work run by the JobSystem.
type JobTask struct {
	ID uuid.UUID
	// Run is required. It receives the context given to the job system.
	Run func(ctx context.Context) (interface{}, error)
	// OnComplete is invoked with the result when Run succeeds. Optional.
	OnComplete func(result interface{})
	// OnFailure is invoked with the error when Run fails. Optional.
	OnFailure func(err error)
}

type JobSystem struct {
	ctx        context.Context
	numWorkers int
	jobQueue   chan JobTask

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
	ErrJobSystemClosed     = errors.New("job system already shut down")
)

func NewJobSystem(ctx context.Context, numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		ctx:        ctx,
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	result, err := job.Run(js.ctx)
	if err != nil {
		core.LogDebug("job %s failed: %s", job.ID, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete(result)
	}
}

// Shutdown stops accepting work and waits for queued jobs to drain.
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return ErrJobSystemClosed
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}

// Submit queues the job, blocking while the queue is full.
func (js *JobSystem) Submit(jt JobTask) error {
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return ErrJobSystemClosed
	}
	if jt.ID == uuid.Nil {
		jt.ID = uuid.New()
	}
	js.jobQueue <- jt
	return nil
}
