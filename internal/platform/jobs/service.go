package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrStopped = errors.New("job service stopped")

// Recorder observes finished jobs; metrics.Registry implements it.
type Recorder interface {
	JobFinished(name string, err error)
	JobDropped(name string)
}

type Service struct {
	queue   chan job
	workers int
	timeout time.Duration
	rec     Recorder

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type job struct {
	Name string
	Run  func(context.Context) error
}

func New(size, workers int, rec Recorder) *Service {
	if size <= 0 {
		size = 128
	}
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		queue:   make(chan job, size),
		workers: workers,
		timeout: 30 * time.Second,
		rec:     rec,
	}
}

func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
}

// Enqueue never blocks. A full or stopped queue drops the job and reports false.
func (s *Service) Enqueue(name string, run func(context.Context) error) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		slog.Warn("job dropped after stop", "job", name)
		s.dropped(name)
		return false
	}
	select {
	case s.queue <- job{Name: name, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "job", name)
		s.dropped(name)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, name string, run func(context.Context) error) error {
	return s.runJob(ctx, job{Name: name, Run: run})
}

// Stop closes the queue and waits for workers to finish what was already queued.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-s.queue:
			if !ok {
				return
			}
			if err := s.runJob(context.WithoutCancel(ctx), j); err != nil {
				slog.Warn("job run failed", "job", j.Name, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "job", j.Name, "panic", r)
			err = errors.New("job panicked")
		}
		if s.rec != nil {
			s.rec.JobFinished(j.Name, err)
		}
	}()
	return j.Run(ctx)
}

func (s *Service) dropped(name string) {
	if s.rec != nil {
		s.rec.JobDropped(name)
	}
}
