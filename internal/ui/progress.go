package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"prefmacro/internal/driver"
)

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	path   string
	status string
	stage  driver.Stage
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-file
// expansion progress. Files not listed up front are added on their first
// event. The model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: "queued"})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = max(msg.Width-4, 10)
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%d/%d)", m.title, m.finished(), len(m.items))
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 12
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(item.path, nameWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	idx, ok := m.index[ev.Path]
	if !ok {
		idx = len(m.items)
		m.items = append(m.items, fileItem{path: ev.Path})
		m.index[ev.Path] = idx
	}
	m.items[idx].stage = ev.Stage
	m.items[idx].status = statusLabel(ev)
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) finished() int {
	n := 0
	for _, item := range m.items {
		if item.stage == driver.StageDone {
			n++
		}
	}
	return n
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		total += progressFromStage(item.stage)
	}
	return total / float64(len(m.items))
}

func progressFromStage(stage driver.Stage) float64 {
	switch stage {
	case driver.StageParse:
		return 0.2
	case driver.StageExpand:
		return 0.5
	case driver.StageMaterialize:
		return 0.8
	case driver.StageDone:
		return 1.0
	default:
		return 0.0
	}
}

func statusLabel(ev driver.Event) string {
	switch ev.Stage {
	case driver.StageQueued:
		return "queued"
	case driver.StageParse:
		return "parsing"
	case driver.StageExpand:
		return "expanding"
	case driver.StageMaterialize:
		return "printing"
	case driver.StageDone:
		switch {
		case ev.Errors > 0:
			return "error"
		case ev.Cached:
			return "cached"
		case ev.Changed:
			return "expanded"
		default:
			return "unchanged"
		}
	}
	return ""
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "expanded", "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "parsing", "expanding", "printing":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

// Feed bridges driver.Observer callbacks from worker goroutines onto a
// channel. Call the returned close func once the run has finished.
func Feed(buffer int) (driver.Observer, <-chan driver.Event, func()) {
	ch := make(chan driver.Event, buffer)
	var (
		mu     sync.RWMutex
		closed bool
		once   sync.Once
	)
	observe := func(ev driver.Event) {
		mu.RLock()
		defer mu.RUnlock()
		if !closed {
			ch <- ev
		}
	}
	closeFn := func() {
		once.Do(func() {
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return observe, ch, closeFn
}

// Run starts the progress UI on out and blocks until events is closed.
func Run(out io.Writer, title string, files []string, events <-chan driver.Event) error {
	p := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out), tea.WithInput(nil))
	_, err := p.Run()
	return err
}
