// Package status reduces a job list to one aggregate status and message and
// publishes it when it changes.
package status

import (
	"github.com/s22625/ciwatch/internal/event"
	"github.com/s22625/ciwatch/internal/model"
)

// Change is the payload of the status-changed event.
type Change struct {
	Status  model.JobStatus
	Message string
}

// ChangedEvent is fired with every distinct (status, message) pair.
type ChangedEvent = event.Event[Change]

// Source exposes the status-changed event.
type Source interface {
	StatusChangedEvent() *ChangedEvent
}

// Reader reduces a job list to an aggregate status. A nil list means no
// observation yet.
type Reader interface {
	Status(jobs []model.Job) model.JobStatus
}

// MessageComposer reduces a job list to a human-readable summary.
type MessageComposer interface {
	Message(jobs []model.Job) string
}

// View displays the aggregate status.
type View interface {
	SetStatus(status model.JobStatus, message string)
}
