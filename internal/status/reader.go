package status

import (
	"strings"

	"github.com/s22625/ciwatch/internal/model"
)

// StatusReader is the default Reader: failing beats everything, no data is
// unknown, anything else is ok.
type StatusReader struct{}

// Status implements Reader.
func (StatusReader) Status(jobs []model.Job) model.JobStatus {
	if jobs == nil {
		return model.JobStatusUnknown
	}
	for _, j := range jobs {
		if j.Status == model.JobStatusFailing {
			return model.JobStatusFailing
		}
	}
	return model.JobStatusOK
}

const (
	messageNoJobs     = "No jobs"
	messageAllPass    = "All active jobs pass"
	messageFailingTag = "FAILING:"
)

// DefaultMessageComposer lists failing jobs, one per line, in input order.
type DefaultMessageComposer struct{}

// Message implements MessageComposer.
func (DefaultMessageComposer) Message(jobs []model.Job) string {
	if jobs == nil {
		return ""
	}
	if len(jobs) == 0 {
		return messageNoJobs
	}

	var failing []string
	for _, j := range jobs {
		if j.Status == model.JobStatusFailing {
			failing = append(failing, j.Name)
		}
	}
	if len(failing) == 0 {
		return messageAllPass
	}
	return messageFailingTag + "\n" + strings.Join(failing, "\n")
}
