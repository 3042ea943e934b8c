// Package monitor implements the interactive terminal dashboard.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/s22625/ciwatch/internal/model"
)

// Controller applies dashboard actions to the pipeline.
type Controller interface {
	Ignore(ctx context.Context, name string) error
	Unignore(ctx context.Context, name string) error
	Refresh()
}

// Dashboard is the bubbletea model for the dashboard UI.
type Dashboard struct {
	ctrl Controller
	host string

	all    []model.JobModel
	jobs   []model.JobModel
	cursor int
	offset int
	width  int
	height int

	observed bool
	status   model.JobStatus
	summary  string

	lastPoll   time.Time
	pollErr    string
	refreshing bool
	interval   time.Duration
	now        time.Time

	message     string
	hideIgnored bool

	keymap KeyMap
	styles Styles
}

type jobsMsg []model.JobModel

type statusMsg struct {
	status  model.JobStatus
	message string
}

type pollMsg struct {
	at  time.Time
	err error
}

type actionMsg struct {
	text string
	err  error
}

type clockMsg time.Time

// NewDashboard creates a dashboard model.
func NewDashboard(ctrl Controller, host string, interval time.Duration) *Dashboard {
	return &Dashboard{
		ctrl:     ctrl,
		host:     host,
		status:   model.JobStatusUnknown,
		interval: interval,
		now:      time.Now(),
		keymap:   DefaultKeyMap(),
		styles:   DefaultStyles(),
	}
}

// SetHideIgnored hides or shows ignored jobs in the table.
func (d *Dashboard) SetHideIgnored(hide bool) {
	d.hideIgnored = hide
	d.setJobs(d.all)
}

// HideIgnored reports whether ignored jobs are hidden.
func (d *Dashboard) HideIgnored() bool {
	return d.hideIgnored
}

// Program creates the bubbletea program for d. The program stops when ctx
// is done.
func (d *Dashboard) Program(ctx context.Context) *tea.Program {
	return tea.NewProgram(d, tea.WithAltScreen(), tea.WithContext(ctx))
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	d.refreshing = true
	return d.clockCmd()
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.ensureCursorVisible()
		return d, nil
	case jobsMsg:
		d.setJobs(msg)
		return d, nil
	case statusMsg:
		d.observed = true
		d.status = msg.status
		d.summary = msg.message
		return d, nil
	case pollMsg:
		d.refreshing = false
		d.lastPoll = msg.at
		d.pollErr = ""
		if msg.err != nil {
			d.pollErr = msg.err.Error()
		}
		return d, nil
	case actionMsg:
		if msg.err != nil {
			d.message = msg.err.Error()
		} else {
			d.message = msg.text
		}
		return d, nil
	case clockMsg:
		d.now = time.Time(msg)
		return d, d.clockCmd()
	case tea.KeyMsg:
		return d.handleKey(msg)
	default:
		return d, nil
	}
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	lines := []string{
		d.styles.Title.Render("CI WATCH") + "  " + d.styles.Muted.Render(d.host),
		"",
		d.renderBanner(),
		d.renderMeta(),
		"",
		d.renderTable(d.tableMaxRows()),
	}
	if d.message != "" {
		lines = append(lines, "", d.styles.Warning.Render(d.message))
	}
	lines = append(lines, "", d.styles.Muted.Render(d.keymap.HelpLine()))
	return d.styles.Box.Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, d.keymap.Quit):
		return d, tea.Quit
	case key.Matches(msg, d.keymap.Up):
		if d.cursor > 0 {
			d.cursor--
			d.ensureCursorVisible()
		}
		return d, nil
	case key.Matches(msg, d.keymap.Down):
		if d.cursor < len(d.jobs)-1 {
			d.cursor++
			d.ensureCursorVisible()
		}
		return d, nil
	case key.Matches(msg, d.keymap.Refresh):
		d.refreshing = true
		d.ctrl.Refresh()
		return d, nil
	case key.Matches(msg, d.keymap.Hide):
		d.SetHideIgnored(!d.hideIgnored)
		if d.hideIgnored {
			d.message = "hiding ignored jobs"
		} else {
			d.message = "showing ignored jobs"
		}
		return d, nil
	case key.Matches(msg, d.keymap.Ignore):
		job, ok := d.selectedJob()
		if !ok {
			d.message = "no job selected"
			return d, nil
		}
		return d, d.toggleIgnoreCmd(job)
	}
	return d, nil
}

func (d *Dashboard) toggleIgnoreCmd(job model.JobModel) tea.Cmd {
	name := job.Job.Name
	ignored := job.Ignored
	return func() tea.Msg {
		ctx := context.Background()
		if ignored {
			if err := d.ctrl.Unignore(ctx, name); err != nil {
				return actionMsg{err: fmt.Errorf("unignore %s: %w", name, err)}
			}
			return actionMsg{text: fmt.Sprintf("watching %s again", name)}
		}
		if err := d.ctrl.Ignore(ctx, name); err != nil {
			return actionMsg{err: fmt.Errorf("ignore %s: %w", name, err)}
		}
		return actionMsg{text: fmt.Sprintf("ignoring %s", name)}
	}
}

func (d *Dashboard) clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func (d *Dashboard) setJobs(models []model.JobModel) {
	var selected string
	if job, ok := d.selectedJob(); ok {
		selected = job.Job.Name
	}

	d.all = models
	d.jobs = models
	if d.hideIgnored {
		d.jobs = make([]model.JobModel, 0, len(models))
		for _, m := range models {
			if !m.Ignored {
				d.jobs = append(d.jobs, m)
			}
		}
	}
	d.cursor = 0
	for i, m := range d.jobs {
		if m.Job.Name == selected {
			d.cursor = i
			break
		}
	}
	d.ensureCursorVisible()
}

func (d *Dashboard) selectedJob() (model.JobModel, bool) {
	if d.cursor < 0 || d.cursor >= len(d.jobs) {
		return model.JobModel{}, false
	}
	return d.jobs[d.cursor], true
}

func (d *Dashboard) renderBanner() string {
	if !d.observed {
		return d.styles.Muted.Render("waiting for first poll...")
	}
	banner := d.styles.StyleStatus(d.status)
	summary := d.summary
	if summary == "" {
		return d.styles.Banner.Render(banner)
	}
	summaryLines := strings.Split(summary, "\n")
	if len(summaryLines) > messageMaxLines {
		hidden := len(summaryLines) - messageMaxLines + 1
		summaryLines = append(summaryLines[:messageMaxLines-1], fmt.Sprintf("(+%d more)", hidden))
	}
	return d.styles.Banner.Render(banner) + "\n" + strings.Join(summaryLines, "\n")
}

func (d *Dashboard) renderMeta() string {
	parts := []string{d.renderSyncStatus(), fmt.Sprintf("every %s", d.interval)}
	ignored := 0
	for _, m := range d.all {
		if m.Ignored {
			ignored++
		}
	}
	parts = append(parts, fmt.Sprintf("jobs: %d", len(d.all)))
	if ignored > 0 {
		label := fmt.Sprintf("ignored: %d", ignored)
		if d.hideIgnored {
			label += " (hidden)"
		}
		parts = append(parts, label)
	}
	meta := d.styles.Muted.Render(strings.Join(parts, "  "))
	if d.pollErr != "" {
		meta += "\n" + d.styles.Warning.Render("last poll failed: "+d.pollErr)
	}
	return meta
}

func (d *Dashboard) renderSyncStatus() string {
	if d.refreshing {
		return "sync: polling..."
	}
	if d.lastPoll.IsZero() {
		return "sync: pending"
	}
	label := fmt.Sprintf("sync: %s", formatRelativeTime(d.lastPoll, d.now))
	if d.interval > 0 && d.now.Sub(d.lastPoll) > d.interval*3 {
		label += " (stale)"
	}
	return label
}

func (d *Dashboard) renderTable(maxRows int) string {
	if !d.observed && len(d.all) == 0 {
		return d.styles.Muted.Render("No jobs yet.")
	}
	if len(d.jobs) == 0 {
		if len(d.all) > 0 {
			return "All jobs are ignored (press h to show them)."
		}
		return "No jobs found."
	}
	nameW := d.nameWidth()

	header := d.renderRow(nameW, "JOB", "STATUS", "IGNORED", d.styles.Header, d.styles.Header)

	start := d.offset
	end := start + d.visibleRows(maxRows)
	if end > len(d.jobs) {
		end = len(d.jobs)
	}

	rows := []string{header}
	for i := start; i < end; i++ {
		m := d.jobs[i]
		textStyle := d.styles.Text
		statusStyle, ok := d.styles.Status[m.Job.Status]
		if !ok {
			statusStyle = d.styles.Text
		}
		ignored := ""
		if m.Ignored {
			ignored = "yes"
			textStyle = d.styles.Muted
			statusStyle = d.styles.Muted
		}
		status := d.styles.Indicator[m.Job.Status] + " " + m.Job.Status.String()
		r := d.renderRow(nameW, m.Job.Name, status, ignored, textStyle, statusStyle)
		if i == d.cursor {
			r = d.styles.Selected.Render(r)
		}
		rows = append(rows, r)
	}
	return strings.Join(rows, "\n")
}

func (d *Dashboard) renderRow(nameW int, name, status, ignored string, textStyle, statusStyle lipgloss.Style) string {
	return strings.Join([]string{
		pad(name, nameW, textStyle),
		pad(status, statusColWidth, statusStyle),
		pad(ignored, ignoredColWidth, textStyle),
	}, "  ")
}

func (d *Dashboard) nameWidth() int {
	w := d.safeWidth() - statusColWidth - ignoredColWidth - 4
	if w < jobNameMinWidth {
		return jobNameMinWidth
	}
	return w
}

func (d *Dashboard) safeWidth() int {
	frame := d.styles.Box.GetHorizontalFrameSize()
	if d.width > frame {
		return d.width - frame
	}
	return 80
}

func (d *Dashboard) safeHeight() int {
	frame := d.styles.Box.GetVerticalFrameSize()
	if d.height > frame {
		return d.height - frame
	}
	return 24
}

func (d *Dashboard) tableMaxRows() int {
	// title, banner, meta, spacing and footer
	base := 8 + messageMaxLines
	if d.message != "" {
		base += 2
	}
	available := d.safeHeight() - base
	if available < 1 {
		return 1
	}
	return available
}

func (d *Dashboard) visibleRows(maxRows int) int {
	if len(d.jobs) < maxRows {
		return len(d.jobs)
	}
	return maxRows
}

func (d *Dashboard) ensureCursorVisible() {
	visible := d.visibleRows(d.tableMaxRows())
	if visible <= 0 {
		d.offset = 0
		return
	}
	if d.cursor < d.offset {
		d.offset = d.cursor
	}
	if d.cursor >= d.offset+visible {
		d.offset = d.cursor - visible + 1
	}
	if maxOffset := len(d.jobs) - visible; d.offset > maxOffset {
		d.offset = maxOffset
	}
	if d.offset < 0 {
		d.offset = 0
	}
}

func pad(s string, width int, style lipgloss.Style) string {
	return style.Width(width).Render(truncate(s, width))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

func formatRelativeTime(when time.Time, now time.Time) string {
	if when.After(now) {
		return "just now"
	}

	elapsed := now.Sub(when)
	switch {
	case elapsed < 10*time.Second:
		return "just now"
	case elapsed < time.Minute:
		return fmt.Sprintf("%ds ago", int(elapsed.Seconds()))
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	}
}
