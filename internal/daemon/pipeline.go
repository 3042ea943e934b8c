package daemon

import (
	"context"
	"time"

	"github.com/s22625/ciwatch/internal/jobs"
	"github.com/s22625/ciwatch/internal/model"
	"github.com/s22625/ciwatch/internal/status"
)

// Pipeline wires the jobs model, the ignore filter, the status model and a
// scheduler together. Views must be added before the scheduler runs.
type Pipeline struct {
	Filter    *jobs.IgnoreJobsFilter
	Jobs      *jobs.Model
	Status    *status.Model
	Scheduler *Scheduler

	logger   Logger
	lastPoll PollResult
}

// Snapshot is a consistent view of the pipeline state.
type Snapshot struct {
	Observed bool
	Status   model.JobStatus
	Message  string
	Jobs     []model.JobModel
	Ignored  []string
	LastPoll PollResult
}

// NewPipeline builds the pipeline for one server.
func NewPipeline(server model.Server, factory jobs.Factory, ignore []string, interval time.Duration, logger Logger) *Pipeline {
	filter := jobs.NewIgnoreJobsFilter(ignore...)
	jobsModel := jobs.NewModel(server, factory, filter, nil)
	statusModel := status.NewModel(jobsModel, filter, status.DefaultMessageComposer{}, status.StatusReader{}, nil)

	p := &Pipeline{
		Filter:    filter,
		Jobs:      jobsModel,
		Status:    statusModel,
		Scheduler: NewScheduler(jobsModel, interval, logger),
		logger:    logger,
	}
	p.AddStatusView(statusLogView{logger: logger})
	p.Scheduler.PolledEvent().Register(func(r PollResult) {
		p.lastPoll = r
	})
	return p
}

// AddJobsView presents every job list change on v.
func (p *Pipeline) AddJobsView(v jobs.View) {
	jobs.NewPresenter(p.Jobs, v)
}

// AddStatusView presents every status change on v.
func (p *Pipeline) AddStatusView(v status.View) {
	status.NewPresenter(p.Status, v)
}

// Ignore excludes a job from aggregation.
func (p *Pipeline) Ignore(ctx context.Context, name string) error {
	return p.Scheduler.Do(ctx, func() {
		p.logger.Printf("ignoring job %q", name)
		p.Jobs.Ignore(name)
	})
}

// Unignore includes a job in aggregation again.
func (p *Pipeline) Unignore(ctx context.Context, name string) error {
	return p.Scheduler.Do(ctx, func() {
		p.logger.Printf("no longer ignoring job %q", name)
		p.Jobs.Unignore(name)
	})
}

// Refresh requests an immediate poll.
func (p *Pipeline) Refresh() {
	p.Scheduler.PollNow()
}

// PollOnce polls on the calling goroutine and returns the resulting state.
// Only use it when the scheduler is not running.
func (p *Pipeline) PollOnce() (Snapshot, error) {
	start := time.Now()
	err := p.Jobs.UpdateJobs()
	p.lastPoll = PollResult{At: start, Duration: time.Since(start), Err: err}
	return p.snapshot(), err
}

// Snapshot reads the pipeline state on the scheduler goroutine.
func (p *Pipeline) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := p.Scheduler.Do(ctx, func() {
		snap = p.snapshot()
	})
	return snap, err
}

func (p *Pipeline) snapshot() Snapshot {
	current, ok := p.Status.Current()
	return Snapshot{
		Observed: ok,
		Status:   current.Status,
		Message:  current.Message,
		Jobs:     p.Jobs.Jobs(),
		Ignored:  p.Filter.Ignored(),
		LastPoll: p.lastPoll,
	}
}

// statusLogView writes status transitions to the log.
type statusLogView struct {
	logger Logger
}

func (v statusLogView) SetStatus(s model.JobStatus, message string) {
	v.logger.Printf("status change -> %s (%q)", s, message)
}
