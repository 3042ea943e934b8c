package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// JobStatus represents the status of a single CI job, or the aggregate
// status of a job list.
type JobStatus string

const (
	JobStatusOK       JobStatus = "ok"
	JobStatusFailing  JobStatus = "failing"
	JobStatusDisabled JobStatus = "disabled"
	JobStatusUnknown  JobStatus = "unknown"
)

// String returns the status value.
func (s JobStatus) String() string {
	return string(s)
}

// Title returns the status with an upper-case first letter ("Failing").
func (s JobStatus) Title() string {
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(string(s))
}

// NormalizeJobStatus converts a string to a canonical JobStatus.
// It returns false for unknown values.
func NormalizeJobStatus(s string) (JobStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(JobStatusOK):
		return JobStatusOK, true
	case string(JobStatusFailing):
		return JobStatusFailing, true
	case string(JobStatusDisabled):
		return JobStatusDisabled, true
	case string(JobStatusUnknown):
		return JobStatusUnknown, true
	default:
		return JobStatusUnknown, false
	}
}

// ParseColor maps a Jenkins ball colour to a JobStatus. The "_anime" suffix
// Jenkins appends while a build is running is ignored.
func ParseColor(color string) JobStatus {
	color = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(color)), "_anime")
	switch color {
	case "blue", "green":
		return JobStatusOK
	case "red", "yellow":
		return JobStatusFailing
	case "disabled", "notbuilt", "aborted":
		return JobStatusDisabled
	default:
		return JobStatusUnknown
	}
}

// Job is one CI job as observed in a single poll. Job is a comparable value:
// two jobs are equal iff name and status are equal.
type Job struct {
	Name   string
	Status JobStatus
}

// NewJob creates a job value.
func NewJob(name string, status JobStatus) Job {
	return Job{Name: name, Status: status}
}

// JobModel pairs a job with whether the user currently ignores it.
type JobModel struct {
	Job     Job
	Ignored bool
}

// Jobs extracts the raw jobs from a job model list. The result is nil only
// when models is nil, so "no observation" survives the conversion.
func Jobs(models []JobModel) []Job {
	if models == nil {
		return nil
	}
	jobs := make([]Job, 0, len(models))
	for _, m := range models {
		jobs = append(jobs, m.Job)
	}
	return jobs
}

// Server identifies the CI server to poll.
type Server struct {
	Host     string
	Username string
	Password string
}

// IsFake reports whether the server is the built-in demo server.
func (s Server) IsFake() bool {
	return strings.EqualFold(strings.TrimSpace(s.Host), "FAKE")
}
