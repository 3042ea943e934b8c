// Package notify turns status changes into terminal desktop notifications
// and bells.
package notify

import (
	"io"
	"sync"

	"github.com/muesli/termenv"

	"github.com/s22625/ciwatch/internal/model"
)

// Title is the notification title used for every status change.
const Title = "CI status change"

const bell = "\a"

// Options switch the individual outputs on or off.
type Options struct {
	Desktop bool
	Bell    bool
}

// Notifier is a status view writing OSC 777 notifications to a terminal.
type Notifier struct {
	out  *termenv.Output
	opts Options

	mu sync.Mutex
}

// New creates a notifier writing to w.
func New(w io.Writer, opts Options) *Notifier {
	return &Notifier{
		out:  termenv.NewOutput(w),
		opts: opts,
	}
}

// SetStatus implements status.View. The bell rings for every failing or ok
// change, including a new failure while already failing.
func (n *Notifier) SetStatus(status model.JobStatus, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.opts.Desktop {
		n.out.Notify(Title, Body(status, message))
	}
	if n.opts.Bell && rings(status) {
		_, _ = n.out.WriteString(bell)
	}
}

// Body formats the notification text for a status change.
func Body(status model.JobStatus, message string) string {
	body := "Status: " + status.Title()
	if message != "" {
		body += "\n" + message
	}
	return body
}

func rings(status model.JobStatus) bool {
	return status == model.JobStatusFailing || status == model.JobStatusOK
}
