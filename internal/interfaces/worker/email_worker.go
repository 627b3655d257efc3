package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gmailarchive/internal/domain/email"
	"gmailarchive/internal/logging"
)

const queueSize = 100

type EmailJob struct {
	GmailID string
}

// Processor classifies one message by id.
type Processor interface {
	Execute(ctx context.Context, gmailID string) (email.Email, error)
}

// ResultFunc receives every successfully processed message. It may be called
// from several workers at once.
type ResultFunc func(email.Email)

type Pool struct {
	workers  int
	delay    time.Duration
	jobs     chan EmailJob
	useCase  Processor
	onResult ResultFunc
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewPool creates a pool of workers. delay is slept after each job to stay
// under API rate limits; zero disables it.
func NewPool(workers int, delay time.Duration, useCase Processor, onResult ResultFunc, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		workers:  workers,
		delay:    delay,
		jobs:     make(chan EmailJob, queueSize),
		useCase:  useCase,
		onResult: onResult,
		logger:   logging.WithOperation(logger, "worker"),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("worker pool started", slog.Int("workers", p.workers))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Submit queues a job. It returns false if ctx ends before the job is
// accepted.
func (p *Pool) Submit(ctx context.Context, job EmailJob) bool {
	select {
	case p.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Shutdown stops accepting jobs and waits for the workers to exit. Queued
// jobs still run while the pool's context is live; once it is cancelled they
// are dropped.
func (p *Pool) Shutdown() {
	close(p.jobs)
	p.wg.Wait()
	p.logger.Info("worker pool shut down")
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(ctx, workerID, job)
			if p.delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.delay):
				}
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, workerID int, job EmailJob) {
	e, err := p.useCase.Execute(ctx, job.GmailID)
	if err != nil {
		p.logger.Warn("job failed", slog.Int("worker", workerID), logging.MessageID(job.GmailID), logging.Err(err))
		return
	}
	if p.onResult != nil {
		p.onResult(e)
	}
}
