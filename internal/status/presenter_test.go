package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s22625/ciwatch/internal/event"
	"github.com/s22625/ciwatch/internal/model"
)

type statusSource struct {
	ev *ChangedEvent
}

func (s statusSource) StatusChangedEvent() *ChangedEvent { return s.ev }

type recordingView struct {
	got []Change
}

func (v *recordingView) SetStatus(status model.JobStatus, message string) {
	v.got = append(v.got, Change{Status: status, Message: message})
}

func TestPresenter_ModelFiresStatusChanged_ViewSetStatusCalled(t *testing.T) {
	ev := event.New[Change]()
	view := &recordingView{}
	NewPresenter(statusSource{ev: ev}, view)

	ev.Fire(Change{Status: model.JobStatusFailing, Message: "status message"})

	assert.Equal(t, []Change{{Status: model.JobStatusFailing, Message: "status message"}}, view.got)
}

func TestMultiView_FansOutInOrder(t *testing.T) {
	var order []string
	first := &orderedView{name: "first", order: &order}
	second := &orderedView{name: "second", order: &order}
	views := []View{first, second}
	mv := NewMultiView(views)
	views[1] = first

	mv.SetStatus(model.JobStatusOK, "fine")

	assert.Equal(t, []string{"first", "second"}, order, "MultiView must not share the caller's slice")
}

func TestMultiView_InstancesDoNotShareViews(t *testing.T) {
	a := &recordingView{}
	mvA := NewMultiView([]View{a})
	mvB := NewMultiView(nil)

	mvB.SetStatus(model.JobStatusFailing, "x")
	mvA.SetStatus(model.JobStatusOK, "y")

	assert.Equal(t, []Change{{Status: model.JobStatusOK, Message: "y"}}, a.got)
}

type orderedView struct {
	name  string
	order *[]string
}

func (v *orderedView) SetStatus(model.JobStatus, string) {
	*v.order = append(*v.order, v.name)
}
