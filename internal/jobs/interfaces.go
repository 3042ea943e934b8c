// Package jobs polls the CI server for its job list and publishes the list
// whenever it changes.
package jobs

import (
	"github.com/s22625/ciwatch/internal/event"
	"github.com/s22625/ciwatch/internal/model"
)

// Client lists the jobs of one CI server.
type Client interface {
	ListJobs() ([]model.Job, error)
}

// Factory creates a Client for a server. It fails with a connectivity or
// authentication error.
type Factory interface {
	Create(server model.Server) (Client, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(server model.Server) (Client, error)

// Create implements Factory.
func (f FactoryFunc) Create(server model.Server) (Client, error) {
	return f(server)
}

// Filter removes job models from a list.
type Filter interface {
	FilterJobs(models []model.JobModel) []model.JobModel
}

// IgnoreSet is a mutable set of ignored job names.
type IgnoreSet interface {
	Ignore(name string)
	Unignore(name string)
	Ignoring(name string) bool
}

// UpdatedEvent is fired with the job models of the latest observation.
type UpdatedEvent = event.Event[[]model.JobModel]

// Source exposes the jobs-updated event.
type Source interface {
	JobsUpdatedEvent() *UpdatedEvent
}

// View displays a job list.
type View interface {
	SetJobs(models []model.JobModel)
}
