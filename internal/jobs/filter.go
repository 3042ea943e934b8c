package jobs

import (
	"sort"

	"github.com/s22625/ciwatch/internal/model"
)

// NoFilter passes job lists through untouched.
type NoFilter struct{}

// FilterJobs returns models unchanged.
func (NoFilter) FilterJobs(models []model.JobModel) []model.JobModel {
	return models
}

// IgnoreJobsFilter excludes jobs whose names the user chose to ignore.
type IgnoreJobsFilter struct {
	ignored map[string]struct{}
}

// NewIgnoreJobsFilter creates a filter that starts out ignoring names.
func NewIgnoreJobsFilter(names ...string) *IgnoreJobsFilter {
	f := &IgnoreJobsFilter{ignored: make(map[string]struct{}, len(names))}
	for _, name := range names {
		f.Ignore(name)
	}
	return f
}

// Ignore adds name to the ignore set. Ignoring an ignored name is a no-op.
func (f *IgnoreJobsFilter) Ignore(name string) {
	f.ignored[name] = struct{}{}
}

// Unignore removes name from the ignore set. Unknown names are a no-op.
func (f *IgnoreJobsFilter) Unignore(name string) {
	delete(f.ignored, name)
}

// Ignoring reports whether name is in the ignore set.
func (f *IgnoreJobsFilter) Ignoring(name string) bool {
	_, ok := f.ignored[name]
	return ok
}

// Ignored returns the ignored names, sorted.
func (f *IgnoreJobsFilter) Ignored() []string {
	names := make([]string, 0, len(f.ignored))
	for name := range f.ignored {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter returns the jobs that are not ignored, in input order. The result
// is nil only for nil input.
func (f *IgnoreJobsFilter) Filter(jobs []model.Job) []model.Job {
	if jobs == nil {
		return nil
	}
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if !f.Ignoring(j.Name) {
			out = append(out, j)
		}
	}
	return out
}

// FilterJobs is Filter for job models.
func (f *IgnoreJobsFilter) FilterJobs(models []model.JobModel) []model.JobModel {
	if models == nil {
		return nil
	}
	out := make([]model.JobModel, 0, len(models))
	for _, m := range models {
		if !f.Ignoring(m.Job.Name) {
			out = append(out, m)
		}
	}
	return out
}
