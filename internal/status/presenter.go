package status

import (
	"slices"

	"github.com/s22625/ciwatch/internal/model"
)

// Presenter forwards every status change to a view.
type Presenter struct{}

// NewPresenter subscribes view to source's status-changed event.
func NewPresenter(source Source, view View) *Presenter {
	source.StatusChangedEvent().Register(func(c Change) {
		view.SetStatus(c.Status, c.Message)
	})
	return &Presenter{}
}

// MultiView fans a status out to several views, in order.
type MultiView struct {
	views []View
}

// NewMultiView creates a MultiView over a copy of views.
func NewMultiView(views []View) *MultiView {
	return &MultiView{views: slices.Clone(views)}
}

// SetStatus implements View.
func (v *MultiView) SetStatus(status model.JobStatus, message string) {
	for _, view := range v.views {
		view.SetStatus(status, message)
	}
}
