package status

import (
	"github.com/s22625/ciwatch/internal/event"
	"github.com/s22625/ciwatch/internal/jobs"
	"github.com/s22625/ciwatch/internal/model"
)

// Model recomputes the aggregate status on every jobs-updated event and
// fires its status-changed event only when status or message differ from
// the last published pair.
type Model struct {
	filter   jobs.Filter
	composer MessageComposer
	reader   Reader
	changed  *ChangedEvent

	published bool
	last      Change
}

// NewModel creates a status model and subscribes it to source. Nil
// collaborators fall back to jobs.NoFilter, DefaultMessageComposer,
// StatusReader and a fresh event.
func NewModel(source jobs.Source, filter jobs.Filter, composer MessageComposer, reader Reader, ev *ChangedEvent) *Model {
	if filter == nil {
		filter = jobs.NoFilter{}
	}
	if composer == nil {
		composer = DefaultMessageComposer{}
	}
	if reader == nil {
		reader = StatusReader{}
	}
	if ev == nil {
		ev = event.New[Change]()
	}
	m := &Model{
		filter:   filter,
		composer: composer,
		reader:   reader,
		changed:  ev,
	}
	source.JobsUpdatedEvent().Register(m.updateStatus)
	return m
}

// StatusChangedEvent returns the event fired on every status transition.
func (m *Model) StatusChangedEvent() *ChangedEvent {
	return m.changed
}

// Current returns the last published pair, and false before the first one.
func (m *Model) Current() (Change, bool) {
	return m.last, m.published
}

func (m *Model) updateStatus(models []model.JobModel) {
	raw := model.Jobs(m.filter.FilterJobs(models))
	next := Change{
		Status:  m.reader.Status(raw),
		Message: m.composer.Message(raw),
	}

	if m.published && next == m.last {
		return
	}
	m.published = true
	m.last = next
	m.changed.Fire(next)
}
