package jobs

import (
	"fmt"
	"slices"

	"github.com/s22625/ciwatch/internal/event"
	"github.com/s22625/ciwatch/internal/model"
)

// Model owns the poll cycle: it fetches the job list and fires its
// jobs-updated event only when the list changed since the last poll.
//
// Model is not safe for concurrent use. The scheduler calls UpdateJobs,
// Ignore and Unignore from a single goroutine.
type Model struct {
	server  model.Server
	factory Factory
	ignores IgnoreSet
	updated *UpdatedEvent

	client     Client
	observed   bool
	lastJobs   []model.Job
	lastModels []model.JobModel
}

// NewModel creates a jobs model. A nil ignores set means nothing is ignored
// until Ignore is called; a nil ev gets a fresh event.
func NewModel(server model.Server, factory Factory, ignores IgnoreSet, ev *UpdatedEvent) *Model {
	if ignores == nil {
		ignores = NewIgnoreJobsFilter()
	}
	if ev == nil {
		ev = event.New[[]model.JobModel]()
	}
	return &Model{
		server:  server,
		factory: factory,
		ignores: ignores,
		updated: ev,
	}
}

// JobsUpdatedEvent returns the event fired whenever the observed job list
// changes. It is the same instance for the model's lifetime.
func (m *Model) JobsUpdatedEvent() *UpdatedEvent {
	return m.updated
}

// UpdateJobs runs one poll. The client is created on the first call and
// reused afterwards. Errors from the factory or the client are returned and
// leave the last observation untouched.
//
// Comparison is order-sensitive: the same jobs in a different order count as
// a change.
func (m *Model) UpdateJobs() error {
	if m.client == nil {
		client, err := m.factory.Create(m.server)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", m.server.Host, err)
		}
		m.client = client
	}

	jobs, err := m.client.ListJobs()
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}
	if jobs == nil {
		jobs = []model.Job{}
	}

	if m.observed && slices.Equal(jobs, m.lastJobs) {
		return nil
	}

	m.observed = true
	m.lastJobs = slices.Clone(jobs)
	m.publish()
	return nil
}

// Ignore adds name to the ignore set. If a job with that name is in the
// last observation, the jobs-updated event fires again with the new flags.
func (m *Model) Ignore(name string) {
	if m.ignores.Ignoring(name) {
		return
	}
	m.ignores.Ignore(name)
	m.republishIfObserved(name)
}

// Unignore removes name from the ignore set, re-firing like Ignore.
func (m *Model) Unignore(name string) {
	if !m.ignores.Ignoring(name) {
		return
	}
	m.ignores.Unignore(name)
	m.republishIfObserved(name)
}

// Ignoring reports whether name is currently ignored.
func (m *Model) Ignoring(name string) bool {
	return m.ignores.Ignoring(name)
}

// Jobs returns a copy of the last published job models, or nil before the
// first successful poll.
func (m *Model) Jobs() []model.JobModel {
	if !m.observed {
		return nil
	}
	return slices.Clone(m.lastModels)
}

func (m *Model) republishIfObserved(name string) {
	if !m.observed {
		return
	}
	if !slices.ContainsFunc(m.lastJobs, func(j model.Job) bool { return j.Name == name }) {
		return
	}
	m.publish()
}

func (m *Model) publish() {
	models := make([]model.JobModel, 0, len(m.lastJobs))
	for _, j := range m.lastJobs {
		models = append(models, model.JobModel{Job: j, Ignored: m.ignores.Ignoring(j.Name)})
	}
	m.lastModels = models
	m.updated.Fire(slices.Clone(models))
}
