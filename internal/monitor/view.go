package monitor

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s22625/ciwatch/internal/model"
)

// Sender delivers messages to a running bubbletea program.
type Sender interface {
	Send(msg tea.Msg)
}

// View forwards pipeline changes to the dashboard. It implements jobs.View
// and status.View and may be called from any goroutine.
type View struct {
	sender Sender
}

// NewView creates a view sending to s, usually a *tea.Program.
func NewView(s Sender) *View {
	return &View{sender: s}
}

// SetJobs implements jobs.View.
func (v *View) SetJobs(models []model.JobModel) {
	v.sender.Send(jobsMsg(append([]model.JobModel(nil), models...)))
}

// SetStatus implements status.View.
func (v *View) SetStatus(status model.JobStatus, message string) {
	v.sender.Send(statusMsg{status: status, message: message})
}

// SetPollResult reports the outcome of a poll.
func (v *View) SetPollResult(at time.Time, err error) {
	v.sender.Send(pollMsg{at: at, err: err})
}
