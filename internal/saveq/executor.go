// Package saveq provides a small sharded work queue that guarantees FIFO
// order *per key* (an itinerary save target) while allowing documents with
// different keys to save in parallel.
//
// **Contract**: callers must not invoke Do concurrently for the *same*
// key. FIFO ordering relies on that external serialisation; the editor's
// saving guard provides it.
package saveq

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tripcraft/itinerary-editor/internal/remote"
)

type queuedJob struct {
	ctx  context.Context
	job  Job
	done chan error
}

// Executor executes Jobs on worker goroutines partitioned by a stable hash of
// the key. FIFO ordering is preserved within a shard.
type Executor struct {
	cfg    Config
	log    zerolog.Logger
	queues []chan queuedJob // len == cfg.Shards

	done   chan struct{} // closed in Stop()
	closed uint32        // 0 → running, 1 → closed

	wg sync.WaitGroup
}

// NewExecutor constructs the executor and starts its shard workers.
func NewExecutor(cfg Config) *Executor {
	if cfg.Shards <= 0 {
		cfg.Shards = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	p := &Executor{
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "saveq").Logger(),
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// Do enqueues job for the shard derived from key and blocks until it has run
// (including retries), returning the job's final error.
//
//   - Returns ErrExecutorClosed if the executor is stopped.
//   - Returns a *QueueFullError if the shard is still full after EnqueueTimeout.
//   - Returns ctx.Err() if the caller-provided context is cancelled first.
func (p *Executor) Do(ctx context.Context, key string, job Job) error {
	qj := queuedJob{ctx: ctx, job: job, done: make(chan error, 1)}
	if err := p.enqueue(ctx, key, qj); err != nil {
		return err
	}
	select {
	case err := <-qj.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop signals every worker to finish draining its queue, waits for them to
// terminate, and then returns. It is idempotent and safe for concurrent use.
func (p *Executor) Stop() {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return
	}
	p.log.Debug().Int("shards", p.cfg.Shards).Msg("stopping executor")
	close(p.done)
	p.wg.Wait()
	p.log.Debug().Msg("executor stopped, all queues drained")
}

// Close lets Executor satisfy io.Closer.
func (p *Executor) Close() error {
	p.Stop()
	return nil
}

// ------------------------- internals -------------------------

func (p *Executor) enqueue(ctx context.Context, key string, qj queuedJob) error {
	if atomic.LoadUint32(&p.closed) == 1 {
		return ErrExecutorClosed
	}
	select {
	case <-p.done:
		return ErrExecutorClosed
	default:
	}

	shard := p.shardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- qj:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-p.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

func (p *Executor) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()

	label := labelFor(idx)
	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				p.finish(qj, nil)
				continue
			}
			if !p.runWithRetry(label, qj) {
				return
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.done:
			// Drain remaining jobs once each, preserving FIFO, then exit.
			drained := 0
			for {
				select {
				case qj := <-ch:
					var err error
					if qj.job != nil {
						err = p.safeRun(qj)
						drained++
					}
					p.finish(qj, err)
				default:
					if drained > 0 {
						p.log.Debug().Int("worker", idx).Int("drained", drained).Msg("drained jobs")
					}
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// runWithRetry executes qj honouring its context and retry policy. It
// returns false when the executor stopped mid-backoff.
func (p *Executor) runWithRetry(label string, qj queuedJob) bool {
	select {
	case <-qj.ctx.Done():
		p.finish(qj, qj.ctx.Err())
		return true
	default:
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = p.cfg.MaxInterval
	exp.Reset()

	var err error
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err = p.safeRun(qj)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil || !remote.IsRecoverable(err) || attempt >= p.cfg.MaxAttempts {
			break
		}

		wait := exp.NextBackOff()
		p.log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying job")
		select {
		case <-time.After(wait):
		case <-p.done:
			p.finish(qj, err)
			return false
		case <-qj.ctx.Done():
			p.finish(qj, qj.ctx.Err())
			return true
		}
	}
	p.finish(qj, err)
	return true
}

// safeRun protects the worker from a panicking job.
func (p *Executor) safeRun(qj queuedJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("job panic")
			err = &PanicError{Value: r}
		}
	}()
	return qj.job.Run(qj.ctx)
}

func (p *Executor) finish(qj queuedJob, err error) {
	if err != nil && p.cfg.ErrorHandler != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error().Interface("panic", r).Msg("error handler panic")
				}
			}()
			p.cfg.ErrorHandler(err)
		}()
	}
	qj.done <- err
}

func (p *Executor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}
