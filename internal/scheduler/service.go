// Package scheduler runs periodic maintenance tasks for the portal server.
package scheduler

import (
	"context"
	"sync"
	"time"

	"consular/pkg/logger"
)

// Task is run every Interval until the scheduler stops.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	nextRun time.Time
}

type Scheduler struct {
	tasks  map[string]*Task
	mu     sync.Mutex
	logger logger.Logger
	tick   time.Duration
	now    func() time.Time
	stop   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

func NewScheduler(log logger.Logger) *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]*Task),
		logger: log,
		tick:   time.Second,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Schedule adds or replaces the task with the same name. The first run happens one
// interval from now.
func (s *Scheduler) Schedule(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.nextRun = s.now().Add(t.Interval)
	s.tasks[t.Name] = t
	s.logger.Info("Scheduled task", map[string]interface{}{
		"task":     t.Name,
		"interval": t.Interval.String(),
	})
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	ticker := time.NewTicker(s.tick)
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ticker.C:
				s.processTasks(ctx)
			case <-s.stop:
				ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("Scheduler started", nil)
}

// Stop cancels running tasks and waits for the loop to exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Scheduler) processTasks(ctx context.Context) {
	s.mu.Lock()
	now := s.now()
	var due []*Task
	for _, task := range s.tasks {
		if !now.Before(task.nextRun) {
			due = append(due, task)
			task.nextRun = now.Add(task.Interval)
		}
	}
	s.mu.Unlock()

	for _, task := range due {
		if err := task.Run(ctx); err != nil {
			s.logger.Error("Scheduled task failed", map[string]interface{}{
				"task":  task.Name,
				"error": err.Error(),
			})
		}
	}
}
