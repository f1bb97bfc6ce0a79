package scheduler

import (
	"log/slog"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Job is a [Task] that can be canceled from any goroutine
// up until the scheduler selects it.
// Constructed by [NewJob].
type Job struct {
	run      func()
	id       string
	canceled atomic.Bool
}

// NewJob wraps fn in a cancelable [Job].
func NewJob(fn func()) *Job {
	if fn == nil {
		panic("scheduler: nil job function")
	}
	return &Job{
		run: fn,
		id:  gonanoid.Must(),
	}
}

// Run calls the job's function.
func (j *Job) Run() { j.run() }

// Cancel marks the job as canceled. It has no effect
// on a job that is already running.
func (j *Job) Cancel() { j.canceled.Store(true) }

// Canceled reports whether Cancel was called.
func (j *Job) Canceled() bool { return j.canceled.Load() }

// ID returns the job's random identifier.
func (j *Job) ID() string { return j.id }

// LogValue implements [slog.LogValuer].
func (j *Job) LogValue() slog.Value { return slog.StringValue(j.id) }
