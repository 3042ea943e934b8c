package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s22625/ciwatch/internal/model"
)

func TestBody(t *testing.T) {
	assert.Equal(t, "Status: Failing\nFAILING:\neric", Body(model.JobStatusFailing, "FAILING:\neric"))
	assert.Equal(t, "Status: Unknown", Body(model.JobStatusUnknown, ""))
}

func TestDesktopNotification(t *testing.T) {
	var buf bytes.Buffer
	n := New(&buf, Options{Desktop: true})

	n.SetStatus(model.JobStatusOK, "All active jobs pass")

	out := buf.String()
	assert.Contains(t, out, "777;notify;"+Title+";Status: Ok\nAll active jobs pass")
	assert.NotContains(t, out, bell)
}

func TestBellOnFailingAndOK(t *testing.T) {
	var buf bytes.Buffer
	n := New(&buf, Options{Bell: true})

	n.SetStatus(model.JobStatusUnknown, "")
	assert.Equal(t, 0, strings.Count(buf.String(), bell))

	n.SetStatus(model.JobStatusFailing, "FAILING:\neric")
	assert.Equal(t, 1, strings.Count(buf.String(), bell))

	// another job starts failing
	n.SetStatus(model.JobStatusFailing, "FAILING:\neric\njohn")
	assert.Equal(t, 2, strings.Count(buf.String(), bell))

	n.SetStatus(model.JobStatusOK, "All active jobs pass")
	assert.Equal(t, 3, strings.Count(buf.String(), bell))

	n.SetStatus(model.JobStatusOK, "No jobs")
	assert.Equal(t, 4, strings.Count(buf.String(), bell))

	n.SetStatus(model.JobStatusDisabled, "")
	assert.Equal(t, 4, strings.Count(buf.String(), bell))
}

func TestDisabled(t *testing.T) {
	var buf bytes.Buffer
	n := New(&buf, Options{})
	n.SetStatus(model.JobStatusFailing, "FAILING:\neric")
	assert.Empty(t, buf.String())
}
