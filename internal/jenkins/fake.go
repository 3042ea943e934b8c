package jenkins

import (
	"github.com/s22625/ciwatch/internal/model"
)

// FakeClient is a demo server whose jobs change status every few polls.
type FakeClient struct {
	names []string
	polls int
}

// fakePollsPerStep is how many polls a fake status lasts.
const fakePollsPerStep = 3

// NewFakeClient creates a demo client.
func NewFakeClient() *FakeClient {
	return &FakeClient{names: []string{"eric", "john", "terry", "graham", "michael"}}
}

var fakeCycle = []model.JobStatus{
	model.JobStatusOK,
	model.JobStatusOK,
	model.JobStatusFailing,
	model.JobStatusDisabled,
	model.JobStatusUnknown,
}

// ListJobs implements jobs.Client.
func (c *FakeClient) ListJobs() ([]model.Job, error) {
	step := c.polls / fakePollsPerStep
	c.polls++

	out := make([]model.Job, 0, len(c.names))
	for i, name := range c.names {
		out = append(out, model.NewJob(name, fakeCycle[(i+step)%len(fakeCycle)]))
	}
	return out, nil
}
