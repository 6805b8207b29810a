package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/seethroughlab/familliar-sub003/internal/downloads"
	"github.com/seethroughlab/familliar-sub003/internal/shared"
)

// Model represents the download monitor state.
type Model struct {
	registry    *downloads.Registry
	events      <-chan downloads.Event
	unsubscribe func()
	jobList     list.Model
	width       int
	height      int
	seen        bool
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a monitor over the registry. It subscribes before
// taking the initial snapshot, so updates committed in between arrive
// on the event channel and replay harmlessly over the snapshot.
func NewModel(registry *downloads.Registry) *Model {
	events, unsubscribe := registry.Subscribe()

	jobs := registry.List()
	items := make([]list.Item, len(jobs))
	for i, job := range jobs {
		items[i] = jobItem{job: job}
	}

	jobList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	jobList.Title = "Downloads"
	jobList.SetStatusBarItemName("job", "jobs")
	jobList.SetFilteringEnabled(false)

	return &Model{
		registry:    registry,
		events:      events,
		unsubscribe: unsubscribe,
		jobList:     jobList,
		seen:        len(jobs) > 0,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the event pump.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.jobList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.jobList, cmd = m.jobList.Update(msg)
	return m, cmd
}

// View renders the job list with a summary line and contextual help.
func (m *Model) View() string {
	summary := m.summaryLine()
	if m.err != nil {
		summary = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}

	helpKeys := []key.Binding{m.keys.cancel, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", m.jobList.View(), summary, helpView)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.unsubscribe()
		return m, tea.Quit
	case "c":
		return m, m.cancelSelected()
	}

	var cmd tea.Cmd
	m.jobList, cmd = m.jobList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgJobEvent:
		if event, ok := msg.data.(downloads.Event); ok {
			return m.applyEvent(event)
		}
		return m, m.waitForEvent()

	case MsgStreamClosed:
		m.unsubscribe()
		return m, tea.Quit

	case MsgCancelIssued:
		// A job can be swept between render and keypress; that miss
		// is not worth surfacing.
		if err, ok := msg.data.(error); ok && err != nil && !errors.Is(err, shared.ErrJobNotFound) {
			m.err = err
		}
		return m, nil
	}

	return m, nil
}

// applyEvent folds one registry event into the list. The monitor quits
// on its own once every job it has shown has been swept out.
func (m *Model) applyEvent(event downloads.Event) (tea.Model, tea.Cmd) {
	if event.Job == nil {
		return m, m.waitForEvent()
	}

	switch event.Type {
	case downloads.EventUpdated:
		m.seen = true
		m.upsertJob(event.Job)
	case downloads.EventRemoved:
		m.removeJob(event.Job.ID)
		if m.seen && len(m.jobList.Items()) == 0 {
			m.unsubscribe()
			return m, tea.Quit
		}
	}

	return m, m.waitForEvent()
}

func (m *Model) cancelSelected() tea.Cmd {
	selected := m.jobList.SelectedItem()
	if selected == nil {
		return nil
	}
	item, ok := selected.(jobItem)
	if !ok {
		return nil
	}

	return func() tea.Msg {
		_, err := m.registry.Cancel(item.job.ID)
		return cancelIssuedMsg(err)
	}
}

// waitForEvent reads the next registry event. A closed channel means
// the registry shut down.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return streamClosedMsg()
		}
		return jobEventMsg(event)
	}
}

func (m *Model) upsertJob(job *downloads.Job) {
	for i, item := range m.jobList.Items() {
		if existing, ok := item.(jobItem); ok && existing.job.ID == job.ID {
			m.jobList.SetItem(i, jobItem{job: job})
			return
		}
	}
	m.jobList.InsertItem(len(m.jobList.Items()), jobItem{job: job})
}

func (m *Model) removeJob(id string) {
	for i, item := range m.jobList.Items() {
		if existing, ok := item.(jobItem); ok && existing.job.ID == id {
			m.jobList.RemoveItem(i)
			return
		}
	}
}

func (m *Model) summaryLine() string {
	var active, queued, finished int
	for _, item := range m.jobList.Items() {
		job, ok := item.(jobItem)
		if !ok {
			continue
		}
		switch job.job.Status {
		case downloads.StatusDownloading:
			active++
		case downloads.StatusQueued:
			queued++
		default:
			finished++
		}
	}

	return fmt.Sprintf("%s • %s • %s",
		styles.active.Render(fmt.Sprintf("%d downloading", active)),
		styles.help.Render(fmt.Sprintf("%d queued", queued)),
		styles.ok.Render(fmt.Sprintf("%d finished", finished)))
}
