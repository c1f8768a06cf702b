package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/pkg/logger"

	"github.com/robfig/cron/v3"
)

// JobFunc is one unit of periodic work. The returned detail is included in the
// job-summary notification.
type JobFunc func(ctx context.Context) (string, error)

// JobRunner schedules the periodic jobs and guarantees at most one in-flight
// execution per job: a trigger arriving while the previous run is still
// executing is skipped, not queued.
type JobRunner interface {
	Register(name, schedule string, fn JobFunc) error
	Start()
	Stop()
	Trigger(ctx context.Context, name string) (*dto.TriggerJobResponse, error)
	Status() []dto.JobStatus
}

type jobState struct {
	name      string
	schedule  string
	fn        JobFunc
	running   bool
	lastRunAt *time.Time
	lastError string
}

type jobRunner struct {
	log        *logger.Logger
	dispatcher Dispatcher
	cron       *cron.Cron

	mu   sync.Mutex
	jobs map[string]*jobState
}

// NewJobRunner creates a new JobRunner.
func NewJobRunner(log *logger.Logger, dispatcher Dispatcher) JobRunner {
	return &jobRunner{
		log:        log,
		dispatcher: dispatcher,
		cron:       cron.New(),
		jobs:       make(map[string]*jobState),
	}
}

func (r *jobRunner) Register(name, schedule string, fn JobFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	state := &jobState{name: name, schedule: schedule, fn: fn}
	r.jobs[name] = state

	if schedule != "" {
		if _, err := r.cron.AddFunc(schedule, func() {
			r.execute(context.Background(), state)
		}); err != nil {
			delete(r.jobs, name)
			return fmt.Errorf("invalid schedule %q for job %q: %w", schedule, name, err)
		}
	}

	return nil
}

func (r *jobRunner) Start() {
	r.cron.Start()
}

// Stop halts the scheduler and waits for in-flight runs to finish.
func (r *jobRunner) Stop() {
	<-r.cron.Stop().Done()
}

// Trigger runs the named job immediately, subject to the same
// one-in-flight guard as scheduled runs.
func (r *jobRunner) Trigger(ctx context.Context, name string) (*dto.TriggerJobResponse, error) {
	r.mu.Lock()
	state, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown job: %q", name)
	}

	if !r.tryAcquire(state) {
		return &dto.TriggerJobResponse{Job: name, Triggered: false, Reason: "already running"}, nil
	}

	// The run outlives the triggering request; keep its values but drop its
	// cancelation so the handler returning does not abort the job.
	go r.runLocked(context.WithoutCancel(ctx), state)

	return &dto.TriggerJobResponse{Job: name, Triggered: true}, nil
}

func (r *jobRunner) Status() []dto.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]dto.JobStatus, 0, len(r.jobs))
	for _, state := range r.jobs {
		statuses = append(statuses, dto.JobStatus{
			Name:      state.name,
			Schedule:  state.schedule,
			Running:   state.running,
			LastRunAt: state.lastRunAt,
			LastError: state.lastError,
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	return statuses
}

// execute is the scheduled entry point: acquire-or-skip, then run.
func (r *jobRunner) execute(ctx context.Context, state *jobState) {
	if !r.tryAcquire(state) {
		r.log.Info("Job still running, skipping trigger", logger.StringField("job", state.name))
		return
	}
	r.runLocked(ctx, state)
}

func (r *jobRunner) tryAcquire(state *jobState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state.running {
		return false
	}
	state.running = true
	return true
}

// runLocked executes the job function; the caller must have acquired the
// running flag.
func (r *jobRunner) runLocked(ctx context.Context, state *jobState) {
	started := time.Now()
	detail, err := state.fn(ctx)
	duration := time.Since(started)

	r.mu.Lock()
	state.running = false
	t := started
	state.lastRunAt = &t
	if err != nil {
		state.lastError = err.Error()
	} else {
		state.lastError = ""
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Error("Job failed",
			logger.StringField("job", state.name),
			logger.DurationField("duration", duration),
			logger.ErrorField(err),
		)
		r.dispatcher.Publish(Event{Type: EventJobError, JobName: state.name, Err: err})
		return
	}

	r.log.Info("Job completed",
		logger.StringField("job", state.name),
		logger.DurationField("duration", duration),
	)
	if detail != "" {
		r.dispatcher.Publish(Event{Type: EventJobSummary, JobName: state.name, Detail: detail, Duration: duration})
	}
}
