package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s22625/ciwatch/internal/model"
)

type fakeController struct {
	mu        sync.Mutex
	ignored   []string
	unignored []string
	refreshed int
	err       error
}

func (c *fakeController) Ignore(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ignored = append(c.ignored, name)
	return c.err
}

func (c *fakeController) Unignore(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unignored = append(c.unignored, name)
	return c.err
}

func (c *fakeController) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshed++
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleJobs() jobsMsg {
	return jobsMsg{
		{Job: model.NewJob("eric", model.JobStatusFailing)},
		{Job: model.NewJob("john", model.JobStatusOK)},
		{Job: model.NewJob("terry", model.JobStatusDisabled), Ignored: true},
	}
}

func newTestDashboard(ctrl *fakeController) *Dashboard {
	d := NewDashboard(ctrl, "ci.example.com", 5*time.Second)
	d.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return d
}

func TestDashboardCursorMovement(t *testing.T) {
	d := newTestDashboard(&fakeController{})
	d.Update(sampleJobs())

	d.Update(runeKey("j"))
	d.Update(tea.KeyMsg{Type: tea.KeyDown})
	if d.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", d.cursor)
	}
	d.Update(runeKey("j"))
	if d.cursor != 2 {
		t.Fatalf("cursor moved past last job: %d", d.cursor)
	}
	d.Update(runeKey("k"))
	if d.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", d.cursor)
	}
}

func TestDashboardKeepsSelectionAcrossUpdates(t *testing.T) {
	d := newTestDashboard(&fakeController{})
	d.Update(sampleJobs())
	d.Update(runeKey("j"))

	reordered := jobsMsg{
		{Job: model.NewJob("terry", model.JobStatusOK)},
		{Job: model.NewJob("john", model.JobStatusOK)},
	}
	d.Update(reordered)
	if d.cursor != 1 {
		t.Fatalf("cursor = %d, want 1 (john)", d.cursor)
	}

	d.Update(jobsMsg{{Job: model.NewJob("graham", model.JobStatusOK)}})
	if d.cursor != 0 {
		t.Fatalf("cursor = %d, want 0 after selected job vanished", d.cursor)
	}
}

func TestDashboardToggleIgnore(t *testing.T) {
	ctrl := &fakeController{}
	d := newTestDashboard(ctrl)
	d.Update(sampleJobs())

	_, cmd := d.Update(runeKey("i"))
	if cmd == nil {
		t.Fatal("expected a command for ignore")
	}
	d.Update(cmd())
	if len(ctrl.ignored) != 1 || ctrl.ignored[0] != "eric" {
		t.Fatalf("ignored = %v, want [eric]", ctrl.ignored)
	}
	if d.message != "ignoring eric" {
		t.Fatalf("message = %q", d.message)
	}

	d.Update(runeKey("j"))
	d.Update(runeKey("j"))
	_, cmd = d.Update(runeKey("i"))
	d.Update(cmd())
	if len(ctrl.unignored) != 1 || ctrl.unignored[0] != "terry" {
		t.Fatalf("unignored = %v, want [terry]", ctrl.unignored)
	}
}

func TestDashboardToggleIgnoreError(t *testing.T) {
	ctrl := &fakeController{err: errors.New("scheduler not running")}
	d := newTestDashboard(ctrl)
	d.Update(sampleJobs())

	_, cmd := d.Update(runeKey("i"))
	d.Update(cmd())
	if !strings.Contains(d.message, "scheduler not running") {
		t.Fatalf("message = %q, want error text", d.message)
	}
}

func TestDashboardIgnoreWithoutJobs(t *testing.T) {
	d := newTestDashboard(&fakeController{})
	_, cmd := d.Update(runeKey("i"))
	if cmd != nil {
		t.Fatal("expected no command without jobs")
	}
	if d.message != "no job selected" {
		t.Fatalf("message = %q", d.message)
	}
}

func TestDashboardRefreshAndQuit(t *testing.T) {
	ctrl := &fakeController{}
	d := newTestDashboard(ctrl)

	d.Update(runeKey("r"))
	if ctrl.refreshed != 1 {
		t.Fatalf("refreshed = %d, want 1", ctrl.refreshed)
	}
	if !d.refreshing {
		t.Fatal("expected refreshing after r")
	}
	d.Update(pollMsg{at: time.Now()})
	if d.refreshing {
		t.Fatal("expected poll result to clear refreshing")
	}

	_, cmd := d.Update(runeKey("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestDashboardView(t *testing.T) {
	d := newTestDashboard(&fakeController{})

	view := d.View()
	if !strings.Contains(view, "waiting for first poll") {
		t.Fatalf("expected waiting banner, got:\n%s", view)
	}

	d.Update(sampleJobs())
	d.Update(statusMsg{status: model.JobStatusFailing, message: "FAILING:\neric"})
	d.Update(pollMsg{at: time.Now(), err: errors.New("connection refused")})

	view = d.View()
	for _, want := range []string{"ci.example.com", "failing", "FAILING:", "eric", "john", "terry", "ignored: 1", "connection refused", "[i] ignore"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDashboardViewEmpty(t *testing.T) {
	d := newTestDashboard(&fakeController{})
	d.Update(jobsMsg{})
	d.Update(statusMsg{status: model.JobStatusOK, message: "No jobs"})

	if view := d.View(); !strings.Contains(view, "No jobs found.") {
		t.Fatalf("expected empty table, got:\n%s", view)
	}
}

type recordingSender struct {
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) { s.msgs = append(s.msgs, msg) }

func TestViewForwardsMessages(t *testing.T) {
	sender := &recordingSender{}
	v := NewView(sender)

	models := []model.JobModel{{Job: model.NewJob("eric", model.JobStatusOK)}}
	v.SetJobs(models)
	models[0].Ignored = true
	v.SetStatus(model.JobStatusOK, "All active jobs pass")
	v.SetPollResult(time.Time{}, nil)

	if len(sender.msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(sender.msgs))
	}
	jm, ok := sender.msgs[0].(jobsMsg)
	if !ok || len(jm) != 1 || jm[0].Ignored {
		t.Fatalf("jobs message = %#v, want an unshared copy", sender.msgs[0])
	}
	if sm, ok := sender.msgs[1].(statusMsg); !ok || sm.status != model.JobStatusOK {
		t.Fatalf("status message = %#v", sender.msgs[1])
	}
	if _, ok := sender.msgs[2].(pollMsg); !ok {
		t.Fatalf("poll message = %#v", sender.msgs[2])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a-very-long-job-name", 10, "a-very-..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		when time.Time
		want string
	}{
		{now.Add(time.Second), "just now"},
		{now.Add(-5 * time.Second), "just now"},
		{now.Add(-30 * time.Second), "30s ago"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(tt.when, now); got != tt.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tt.when, got, tt.want)
		}
	}
}

func TestDashboardHideIgnored(t *testing.T) {
	d := newTestDashboard(&fakeController{})
	d.Update(sampleJobs())
	d.Update(runeKey("j"))
	d.Update(runeKey("j"))

	d.Update(runeKey("h"))
	if !d.HideIgnored() {
		t.Fatal("expected ignored jobs hidden")
	}
	if len(d.jobs) != 2 {
		t.Fatalf("visible jobs = %d, want 2", len(d.jobs))
	}
	if d.cursor != 0 {
		t.Fatalf("cursor = %d, want 0 once terry is hidden", d.cursor)
	}
	view := d.View()
	if strings.Contains(view, "terry") {
		t.Fatalf("hidden job still shown:\n%s", view)
	}
	if !strings.Contains(view, "ignored: 1 (hidden)") {
		t.Fatalf("expected hidden marker:\n%s", view)
	}

	d.Update(runeKey("h"))
	if d.HideIgnored() || len(d.jobs) != 3 {
		t.Fatalf("expected all jobs after second toggle, got %d", len(d.jobs))
	}
}

func TestDashboardAllIgnoredHidden(t *testing.T) {
	d := newTestDashboard(&fakeController{})
	d.SetHideIgnored(true)
	d.Update(jobsMsg{{Job: model.NewJob("eric", model.JobStatusOK), Ignored: true}})

	if view := d.View(); !strings.Contains(view, "All jobs are ignored") {
		t.Fatalf("expected all-ignored notice:\n%s", view)
	}
}
