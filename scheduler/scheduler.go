package scheduler

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/djdv/go-frameloop/internal/logging"
)

type (
	// Task is a unit of work executed by the scheduler.
	Task interface {
		Run()
	}
	// TaskFunc adapts a function to the [Task] interface.
	TaskFunc func()
	// Cancelable is implemented by tasks that may be
	// abandoned before they are selected.
	// Tasks that do not implement it are never canceled.
	Cancelable interface {
		Canceled() bool
	}
	// PriorityFunc returns a task's current score.
	// It is called during selection, without the scheduler's lock held.
	PriorityFunc func() float64
	// Option configures a [Scheduler].
	Option func(*Scheduler)

	// Scheduler executes at most one queued task per cycle.
	// Safe for concurrent use; construct with [New].
	Scheduler struct {
		log      *slog.Logger
		metrics  Metrics
		activate func()
		once     sync.Once
		mu       sync.Mutex
		queue    []pending
	}

	pending struct {
		task     Task
		priority PriorityFunc
		score    float64
		ranked   bool
	}
)

// Run calls f.
func (f TaskFunc) Run() { f() }

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.log = logging.OrNop(logger) }
}

// WithMetrics sets the scheduler's instrumentation.
func WithMetrics(metrics Metrics) Option {
	return func(s *Scheduler) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithActivate registers a function that is called once,
// on the first call to [Scheduler.Submit].
// Drivers use it to start calling [Scheduler.RunOnce] each cycle.
func WithActivate(activate func()) Option {
	return func(s *Scheduler) { s.activate = activate }
}

// New creates a [Scheduler].
func New(options ...Option) *Scheduler {
	s := &Scheduler{
		log:     logging.Nop(),
		metrics: nopMetrics{},
	}
	for _, apply := range options {
		apply(s)
	}
	return s
}

// Submit queues task. If priority is nil the task outranks
// every task that has a priority.
// Nil tasks are ignored.
func (s *Scheduler) Submit(task Task, priority PriorityFunc) {
	if task == nil {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, pending{
		task:     task,
		priority: priority,
	})
	s.mu.Unlock()
	s.metrics.Submitted()
	if s.activate != nil {
		s.once.Do(s.activate)
	}
}

// RunOnce selects the highest ranked task that is not canceled
// and runs it on the calling goroutine. Canceled tasks encountered
// along the way are dropped. RunOnce reports whether a task ran.
func (s *Scheduler) RunOnce() bool {
	task := s.next()
	if task == nil {
		return false
	}
	start := time.Now()
	task.Run()
	s.metrics.Ran(time.Since(start))
	return true
}

// Len returns the number of queued tasks, including
// canceled tasks that have not been discarded yet.
// Tasks being ranked by a concurrent RunOnce are not counted.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Scheduler) next() Task {
	// Ranking runs unlocked so priorities may be slow,
	// or call back into the scheduler.
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()
	if len(queue) == 0 {
		return nil
	}
	for i := range queue {
		s.rank(&queue[i])
	}
	// Ascending, so the winner is popped from the back.
	slices.SortFunc(queue, ascending)
	var chosen Task
	for len(queue) > 0 {
		last := len(queue) - 1
		selected := queue[last]
		queue[last] = pending{}
		queue = queue[:last]
		if canceled(selected.task) {
			s.log.Debug("discarded canceled task",
				slog.Any("task", selected.task))
			s.metrics.Discarded()
			continue
		}
		chosen = selected.task
		break
	}
	s.mu.Lock()
	s.queue = append(queue, s.queue...)
	backlog := len(s.queue)
	s.mu.Unlock()
	s.metrics.Backlog(backlog)
	return chosen
}

func (s *Scheduler) rank(p *pending) {
	p.ranked = false
	if p.priority == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			p.ranked = false
			s.log.Warn("priority function panicked; task treated as unranked",
				slog.Any("task", p.task),
				slog.Any("panic", recovered))
		}
	}()
	p.score = p.priority()
	p.ranked = true
}

// ascending orders unranked tasks after every ranked task,
// and ranked tasks by score.
func ascending(a, b pending) int {
	switch {
	case !a.ranked && !b.ranked:
		return 0
	case !a.ranked:
		return 1
	case !b.ranked:
		return -1
	}
	return cmp.Compare(a.score, b.score)
}

func canceled(task Task) bool {
	cancelable, ok := task.(Cancelable)
	return ok && cancelable.Canceled()
}
