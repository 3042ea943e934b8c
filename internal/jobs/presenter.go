package jobs

// Presenter forwards every jobs-updated event to a view.
type Presenter struct{}

// NewPresenter subscribes view to source's jobs-updated event.
func NewPresenter(source Source, view View) *Presenter {
	source.JobsUpdatedEvent().Register(view.SetJobs)
	return &Presenter{}
}
