package worker

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/getsentry/sentry-go"
)

// Pool runs jobs on a fixed number of goroutines. A job that panics is recovered and reported to sentry; the
// worker keeps running.
type Pool struct {
	queue chan job
	log   *slog.Logger

	wg      sync.WaitGroup
	workers sync.WaitGroup
	close   sync.Once
}

type job struct {
	f       func()
	onPanic func(v any)
}

// New starts a pool with n workers. If n is not positive, one worker per CPU is started.
func New(n int, log *slog.Logger) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Pool{queue: make(chan job, n), log: log}
	p.workers.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for j := range p.queue {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	defer p.wg.Done()
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		hub := sentry.CurrentHub().Clone()
		hub.Recover(v)

		p.log.Error("recovered panic in worker", "err", fmt.Sprint(v))
		if j.onPanic != nil {
			j.onPanic(v)
		}
	}()
	j.f()
}

// Submit queues f. onPanic, if not nil, is called with the recovered value if f panics.
func (p *Pool) Submit(f func(), onPanic func(v any)) {
	p.wg.Add(1)
	p.queue <- job{f: f, onPanic: onPanic}
}

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close waits for the queued jobs and stops the workers. The pool must not be used afterwards.
func (p *Pool) Close() {
	p.close.Do(func() {
		close(p.queue)
		p.workers.Wait()
	})
}
