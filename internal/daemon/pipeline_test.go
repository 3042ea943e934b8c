package daemon

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/s22625/ciwatch/internal/jobs"
	"github.com/s22625/ciwatch/internal/model"
)

// sequenceClient returns its job lists in turn, repeating the last one.
type sequenceClient struct {
	mu    sync.Mutex
	lists [][]model.Job
	err   error
	calls int
}

func (c *sequenceClient) ListJobs() ([]model.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if len(c.lists) == 0 {
		return []model.Job{}, nil
	}
	i := c.calls - 1
	if i >= len(c.lists) {
		i = len(c.lists) - 1
	}
	return c.lists[i], nil
}

func (c *sequenceClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// newTestPipeline builds a pipeline over client, or over a client serving
// list when client is nil.
func newTestPipeline(t *testing.T, client *sequenceClient, list ...model.Job) *Pipeline {
	t.Helper()
	if client == nil {
		client = &sequenceClient{lists: [][]model.Job{list}}
	}
	factory := jobs.FactoryFunc(func(model.Server) (jobs.Client, error) {
		return client, nil
	})
	return NewPipeline(model.Server{Host: "ci.example.com"}, factory, nil, time.Hour, discardLogger())
}

func startTestScheduler(t *testing.T, p *Pipeline) {
	t.Helper()
	startScheduler(t, p.Scheduler)
}

type statusRecorder struct {
	mu      sync.Mutex
	changes []string
}

func (r *statusRecorder) SetStatus(s model.JobStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, string(s)+"|"+message)
}

func (r *statusRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changes...)
}

func TestPipelinePollOnce(t *testing.T) {
	p := newTestPipeline(t, nil,
		model.NewJob("eric", model.JobStatusFailing),
		model.NewJob("john", model.JobStatusOK),
	)

	snap, err := p.PollOnce()
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if !snap.Observed || snap.Status != model.JobStatusFailing || snap.Message != "FAILING:\neric" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Jobs) != 2 || snap.LastPoll.At.IsZero() {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestPipelinePollOnceError(t *testing.T) {
	p := newTestPipeline(t, &sequenceClient{err: errors.New("401 Unauthorized")})

	snap, err := p.PollOnce()
	if err == nil {
		t.Fatal("expected error")
	}
	if snap.Observed {
		t.Fatalf("snapshot observed after failed first poll: %+v", snap)
	}
	if snap.LastPoll.Err == nil {
		t.Fatal("expected poll error in snapshot")
	}
}

func TestPipelineInitialIgnore(t *testing.T) {
	client := &sequenceClient{lists: [][]model.Job{{
		model.NewJob("eric", model.JobStatusFailing),
		model.NewJob("john", model.JobStatusOK),
	}}}
	factory := jobs.FactoryFunc(func(model.Server) (jobs.Client, error) { return client, nil })
	p := NewPipeline(model.Server{Host: "ci"}, factory, []string{"eric"}, time.Hour, discardLogger())

	snap, err := p.PollOnce()
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if snap.Status != model.JobStatusOK || snap.Message != "All active jobs pass" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Ignored) != 1 || snap.Ignored[0] != "eric" {
		t.Fatalf("ignored = %v", snap.Ignored)
	}
	if !snap.Jobs[0].Ignored || snap.Jobs[1].Ignored {
		t.Fatalf("jobs = %+v", snap.Jobs)
	}
}

func TestPipelineStatusViewsAndIgnore(t *testing.T) {
	client := &sequenceClient{lists: [][]model.Job{{
		model.NewJob("eric", model.JobStatusFailing),
		model.NewJob("john", model.JobStatusOK),
	}}}
	p := newTestPipeline(t, client)
	rec := &statusRecorder{}
	p.AddStatusView(rec)
	startTestScheduler(t, p)

	ctx := context.Background()
	snap, err := p.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Status != model.JobStatusFailing {
		t.Fatalf("status = %s, want failing", snap.Status)
	}

	if err := p.Ignore(ctx, "eric"); err != nil {
		t.Fatalf("Ignore: %v", err)
	}
	if err := p.Unignore(ctx, "eric"); err != nil {
		t.Fatalf("Unignore: %v", err)
	}

	want := []string{
		"failing|FAILING:\neric",
		"ok|All active jobs pass",
		"failing|FAILING:\neric",
	}
	got := rec.snapshot()
	if strings.Join(got, ";") != strings.Join(want, ";") {
		t.Fatalf("status changes = %q, want %q", got, want)
	}
}

func TestPipelineRepeatedPollsDoNotRefire(t *testing.T) {
	client := &sequenceClient{lists: [][]model.Job{{model.NewJob("eric", model.JobStatusOK)}}}
	p := newTestPipeline(t, client)
	rec := &statusRecorder{}
	p.AddStatusView(rec)
	startTestScheduler(t, p)

	for i := 0; i < 3; i++ {
		p.Refresh()
		want := i + 2
		waitFor(t, "refresh poll", func() bool { return client.count() >= want })
	}
	// drain through the loop so the last poll has been published
	if _, err := p.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("status changes = %q, want exactly one", got)
	}
}

func TestPipelineLogsStatusChanges(t *testing.T) {
	var buf bytes.Buffer
	client := &sequenceClient{lists: [][]model.Job{{model.NewJob("eric", model.JobStatusFailing)}}}
	factory := jobs.FactoryFunc(func(model.Server) (jobs.Client, error) { return client, nil })
	p := NewPipeline(model.Server{Host: "ci"}, factory, nil, time.Hour, NewLogger(&buf, "info"))

	if _, err := p.PollOnce(); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if !strings.Contains(buf.String(), `status change -> failing ("FAILING:\neric")`) {
		t.Fatalf("log = %q", buf.String())
	}
}
