// Package grants submits grant-utilization records to the welfare API
// through a bounded queue so bursts of form submissions do not overrun it.
package grants

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
)

type Saver interface {
	SaveGrantUtilization(ctx context.Context, auth *utils.AuthContext, record *domain.GrantUtilization) (*domain.GrantUtilization, error)
}

type Options struct {
	// Concurrency is the number of submissions sent together in one batch.
	Concurrency int

	// BatchDelay is the pause between two batches.
	BatchDelay time.Duration

	// Capacity bounds the number of waiting submissions.
	Capacity int
}

type result struct {
	saved *domain.GrantUtilization
	err   error
}

type job struct {
	id     string
	ctx    context.Context
	auth   *utils.AuthContext
	record *domain.GrantUtilization
	done   chan result
}

type Queue struct {
	saver Saver
	opts  Options

	mx     sync.RWMutex
	closed bool
	jobs   chan *job

	finished chan struct{}
}

func NewQueue(saver Saver, opts Options) *Queue {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Capacity <= 0 {
		opts.Capacity = opts.Concurrency
	}

	q := &Queue{
		saver:    saver,
		opts:     opts,
		jobs:     make(chan *job, opts.Capacity),
		finished: make(chan struct{}),
	}
	go q.loop()
	return q
}

// Submit enqueues record and waits for it to be saved or for ctx to end.
func (q *Queue) Submit(ctx context.Context, auth *utils.AuthContext, record *domain.GrantUtilization) (*domain.GrantUtilization, error) {
	if err := Validate(record); err != nil {
		return nil, err
	}

	j := &job{
		id:     uuid.NewString(),
		ctx:    ctx,
		auth:   auth,
		record: record,
		done:   make(chan result, 1),
	}

	if err := q.enqueue(j); err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "grant submission %s queued for hh %s", j.id, record.HHNumber)

	select {
	case r := <-j.done:
		return r.saved, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) enqueue(j *job) error {
	q.mx.RLock()
	defer q.mx.RUnlock()

	if q.closed {
		return constants.ErrQueueClosed
	}
	select {
	case q.jobs <- j:
		return nil
	default:
		return constants.ErrQueueFull
	}
}

// Close stops accepting submissions and waits until every queued one has
// been processed or ctx ends.
func (q *Queue) Close(ctx context.Context) error {
	q.mx.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mx.Unlock()

	select {
	case <-q.finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain grant queue: %w", ctx.Err())
	}
}

func (q *Queue) loop() {
	defer close(q.finished)

	for {
		first, ok := <-q.jobs
		if !ok {
			return
		}

		batch := []*job{first}
		open := true
	fill:
		for len(batch) < q.opts.Concurrency {
			select {
			case j, more := <-q.jobs:
				if !more {
					open = false
					break fill
				}
				batch = append(batch, j)
			default:
				break fill
			}
		}

		q.run(batch)

		if !open {
			return
		}
		if q.opts.BatchDelay > 0 {
			time.Sleep(q.opts.BatchDelay)
		}
	}
}

func (q *Queue) run(batch []*job) {
	var eg errgroup.Group
	for _, j := range batch {
		j := j
		eg.Go(func() error {
			if err := j.ctx.Err(); err != nil {
				j.done <- result{err: err}
				return nil
			}

			saved, err := q.saver.SaveGrantUtilization(j.ctx, j.auth, j.record)
			if err != nil {
				logger.Errorf(j.ctx, "grant submission %s failed: %s", j.id, err.Error())
				err = fmt.Errorf("save grant utilization: %w", err)
			}
			j.done <- result{saved: saved, err: err}
			return nil
		})
	}
	_ = eg.Wait()
}
