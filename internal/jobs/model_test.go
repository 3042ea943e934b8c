package jobs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s22625/ciwatch/internal/event"
	"github.com/s22625/ciwatch/internal/model"
)

type scriptedClient struct {
	results [][]model.Job
	errs    []error
	calls   int
}

func (c *scriptedClient) ListJobs() ([]model.Job, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i >= len(c.results) {
		return c.results[len(c.results)-1], nil
	}
	return c.results[i], nil
}

type countingFactory struct {
	client  Client
	err     error
	created int
	servers []model.Server
}

func (f *countingFactory) Create(server model.Server) (Client, error) {
	f.created++
	f.servers = append(f.servers, server)
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

type firedRecorder struct {
	fired [][]model.JobModel
}

func (r *firedRecorder) record(models []model.JobModel) {
	r.fired = append(r.fired, models)
}

var server = model.Server{Host: "host", Username: "uname", Password: "pw"}

func newTestModel(t *testing.T, client *scriptedClient, ignores IgnoreSet) (*Model, *countingFactory, *firedRecorder) {
	t.Helper()
	factory := &countingFactory{client: client}
	rec := &firedRecorder{}
	ev := event.New[[]model.JobModel]()
	ev.Register(rec.record)
	return NewModel(server, factory, ignores, ev), factory, rec
}

func models(jobs ...model.Job) []model.JobModel {
	out := make([]model.JobModel, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, model.JobModel{Job: j})
	}
	return out
}

func TestUpdateJobs_FirstCall_FiresWithRetrievedJobs(t *testing.T) {
	jobs := []model.Job{model.NewJob("job1", model.JobStatusOK), model.NewJob("job2", model.JobStatusFailing)}
	m, factory, rec := newTestModel(t, &scriptedClient{results: [][]model.Job{jobs}}, nil)

	require.NoError(t, m.UpdateJobs())

	require.Len(t, rec.fired, 1)
	assert.Equal(t, models(jobs...), rec.fired[0])
	assert.Equal(t, []model.Server{server}, factory.servers)
}

func TestUpdateJobs_SameJobsTwice_FiresOnce(t *testing.T) {
	jobs := []model.Job{model.NewJob("job1", model.JobStatusOK), model.NewJob("job2", model.JobStatusFailing)}
	same := []model.Job{model.NewJob("job1", model.JobStatusOK), model.NewJob("job2", model.JobStatusFailing)}
	m, factory, rec := newTestModel(t, &scriptedClient{results: [][]model.Job{jobs, same}}, nil)

	require.NoError(t, m.UpdateJobs())
	require.NoError(t, m.UpdateJobs())

	assert.Len(t, rec.fired, 1)
	assert.Equal(t, 1, factory.created, "client must be created once and cached")
}

func TestUpdateJobs_DifferentJobs_FiresForEachResult(t *testing.T) {
	one := []model.Job{model.NewJob("job1", model.JobStatusOK), model.NewJob("job2", model.JobStatusFailing)}
	two := []model.Job{model.NewJob("job1", model.JobStatusOK), model.NewJob("job2", model.JobStatusOK)}
	m, _, rec := newTestModel(t, &scriptedClient{results: [][]model.Job{one, two}}, nil)

	require.NoError(t, m.UpdateJobs())
	require.NoError(t, m.UpdateJobs())

	require.Len(t, rec.fired, 2)
	assert.Equal(t, models(one...), rec.fired[0])
	assert.Equal(t, models(two...), rec.fired[1])
}

func TestUpdateJobs_ReorderedJobs_CountsAsChange(t *testing.T) {
	a, b := model.NewJob("a", model.JobStatusOK), model.NewJob("b", model.JobStatusOK)
	m, _, rec := newTestModel(t, &scriptedClient{results: [][]model.Job{{a, b}, {b, a}}}, nil)

	require.NoError(t, m.UpdateJobs())
	require.NoError(t, m.UpdateJobs())

	assert.Len(t, rec.fired, 2)
}

func TestUpdateJobs_EmptyListIsAnObservation(t *testing.T) {
	m, _, rec := newTestModel(t, &scriptedClient{results: [][]model.Job{nil, {}}}, nil)

	require.NoError(t, m.UpdateJobs())
	require.NoError(t, m.UpdateJobs())

	require.Len(t, rec.fired, 1)
	assert.NotNil(t, rec.fired[0])
	assert.Empty(t, rec.fired[0])
}

func TestUpdateJobs_FactoryError_Propagates(t *testing.T) {
	boom := errors.New("connection refused")
	factory := &countingFactory{err: boom}
	rec := &firedRecorder{}
	m := NewModel(server, factory, nil, nil)
	m.JobsUpdatedEvent().Register(rec.record)

	err := m.UpdateJobs()

	require.ErrorIs(t, err, boom)
	assert.Empty(t, rec.fired)
	assert.Nil(t, m.Jobs())
}

func TestUpdateJobs_ListError_PropagatesAndKeepsState(t *testing.T) {
	jobs := []model.Job{model.NewJob("job1", model.JobStatusOK)}
	boom := errors.New("bad gateway")
	client := &scriptedClient{results: [][]model.Job{jobs, nil, jobs}, errs: []error{nil, boom, nil}}
	m, _, rec := newTestModel(t, client, nil)

	require.NoError(t, m.UpdateJobs())
	require.ErrorIs(t, m.UpdateJobs(), boom)
	require.NoError(t, m.UpdateJobs())

	assert.Len(t, rec.fired, 1, "recovery with identical jobs must not refire")
}

func TestJobsUpdatedEvent_ReturnsEventFromConstructor(t *testing.T) {
	ev := event.New[[]model.JobModel]()
	m := NewModel(server, &countingFactory{}, nil, ev)

	assert.Same(t, ev, m.JobsUpdatedEvent())
	assert.Same(t, m.JobsUpdatedEvent(), m.JobsUpdatedEvent())
}

func TestUpdateJobs_IgnoredFlagFromFilter(t *testing.T) {
	jobs := []model.Job{model.NewJob("eric", model.JobStatusFailing), model.NewJob("terry", model.JobStatusOK)}
	m, _, rec := newTestModel(t, &scriptedClient{results: [][]model.Job{jobs}}, NewIgnoreJobsFilter("terry"))

	require.NoError(t, m.UpdateJobs())

	require.Len(t, rec.fired, 1)
	assert.Equal(t, []model.JobModel{
		{Job: jobs[0], Ignored: false},
		{Job: jobs[1], Ignored: true},
	}, rec.fired[0])
}

func TestIgnore_RefiresWithUpdatedFlags(t *testing.T) {
	jobs := []model.Job{model.NewJob("eric", model.JobStatusFailing), model.NewJob("terry", model.JobStatusOK)}
	m, _, rec := newTestModel(t, &scriptedClient{results: [][]model.Job{jobs}}, nil)
	require.NoError(t, m.UpdateJobs())

	m.Ignore("eric")
	m.Ignore("eric")

	require.Len(t, rec.fired, 2, "second ignore of the same name is a no-op")
	assert.True(t, rec.fired[1][0].Ignored)
	assert.True(t, m.Ignoring("eric"))

	m.Unignore("eric")
	m.Unignore("eric")

	require.Len(t, rec.fired, 3)
	assert.False(t, rec.fired[2][0].Ignored)
}

func TestIgnore_UnobservedOrAbsentJob_DoesNotFire(t *testing.T) {
	jobs := []model.Job{model.NewJob("eric", model.JobStatusFailing)}
	m, _, rec := newTestModel(t, &scriptedClient{results: [][]model.Job{jobs}}, nil)

	m.Ignore("eric")
	assert.Empty(t, rec.fired)

	require.NoError(t, m.UpdateJobs())
	m.Ignore("graham")

	assert.Len(t, rec.fired, 1)
	assert.True(t, rec.fired[0][0].Ignored, "ignore before first poll still applies")
}

func TestJobs_ReturnsCopy(t *testing.T) {
	jobs := []model.Job{model.NewJob("eric", model.JobStatusFailing)}
	m, _, _ := newTestModel(t, &scriptedClient{results: [][]model.Job{jobs}}, nil)
	require.NoError(t, m.UpdateJobs())

	got := m.Jobs()
	got[0].Ignored = true

	assert.False(t, m.Jobs()[0].Ignored)
}
