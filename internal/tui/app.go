// internal/tui/app.go
//
// This is the interactive terminal interface for modelkit.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TrashHobbit/modelkit/internal/config"
	"github.com/TrashHobbit/modelkit/internal/logbook"
	"github.com/TrashHobbit/modelkit/internal/task"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMenu    appState = iota // Task picker
	stateRunning                 // A task is in flight
	stateResult                  // Showing the last task outcome
)

const logPanelLines = 8

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			MarginBottom(1)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#50C878"))
	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	noopStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E5C07B"))
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
	logHeadStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	logBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

// taskDoneMsg carries a finished task back into the update loop.
type taskDoneMsg struct {
	id     string
	result task.Result
	err    error
}

// menuItem implements list.Item for the task menu.
type menuItem struct {
	id    string
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	logbook *logbook.Logbook
	tasks   []task.Task

	menu    list.Model
	spin    spinner.Model
	running string

	lastResult task.Result
	lastErr    error
	statusMsg  string

	width  int
	height int
}

// AppOption customizes App construction for tests.
type AppOption func(*App)

// WithLogbook overrides the run log.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) { a.logbook = lb }
}

// NewApp builds the TUI over the given project tasks.
func NewApp(cfg *config.Config, tasks []task.Task, opts ...AppOption) *App {
	items := make([]list.Item, 0, len(tasks)+1)
	for _, t := range tasks {
		items = append(items, menuItem{id: t.Info.ID, title: t.Info.Name, desc: t.Info.Description})
	}
	items = append(items, menuItem{id: "exit", title: "Exit", desc: "Quit modelkit"})

	menu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	menu.Title = "⬡ MODELKIT"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	app := &App{
		state:     stateMenu,
		config:    cfg,
		tasks:     tasks,
		menu:      menu,
		spin:      spin,
		statusMsg: "Select a task",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.logbook == nil && cfg != nil {
		if lb, err := logbook.New(cfg.LogPath()); err == nil {
			app.logbook = lb
		}
	}
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.menu.SetSize(max(0, msg.Width-6), max(0, msg.Height-logPanelLines-8))
		return a, nil

	case taskDoneMsg:
		a.state = stateResult
		a.running = ""
		a.lastResult = msg.result
		a.lastErr = msg.err
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("%s failed", msg.id)
			a.logbook.Error("%s: %v", msg.id, msg.err)
		} else {
			a.statusMsg = fmt.Sprintf("%s %s", msg.id, msg.result.Status)
			a.logbook.Info("%s: %s", msg.id, msg.result.Message)
		}
		return a, nil

	case spinner.TickMsg:
		if a.state != stateRunning {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state != stateRunning {
				return a, tea.Quit
			}
		case "esc":
			if a.state == stateResult {
				a.state = stateMenu
				a.statusMsg = "Select a task"
				return a, nil
			}
		case "enter":
			if a.state == stateMenu {
				return a.handleMenuSelection()
			}
			if a.state == stateResult {
				a.state = stateMenu
				a.statusMsg = "Select a task"
				return a, nil
			}
		}
	}

	if a.state == stateMenu {
		var cmd tea.Cmd
		a.menu, cmd = a.menu.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.menu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	if item.id == "exit" {
		a.logbook.Info("menu: exit")
		return a, tea.Quit
	}
	selected, ok := a.taskByID(item.id)
	if !ok {
		a.statusMsg = fmt.Sprintf("unknown task %s", item.id)
		return a, nil
	}
	a.state = stateRunning
	a.running = selected.Info.Name
	a.statusMsg = fmt.Sprintf("Running %s...", selected.Info.Name)
	a.logbook.Info("menu: %s selected", selected.Info.ID)
	return a, tea.Batch(a.spin.Tick, runTask(selected))
}

func (a *App) taskByID(id string) (task.Task, bool) {
	for _, t := range a.tasks {
		if t.Info.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

// runTask executes the task off the update loop and reports back via message.
func runTask(t task.Task) tea.Cmd {
	return func() tea.Msg {
		result, err := t.Run(context.Background())
		return taskDoneMsg{id: t.Info.ID, result: result, err: err}
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	header := headerStyle.Render("⬡ MODELKIT")

	var content string
	switch a.state {
	case stateMenu:
		content = a.menu.View()
	case stateRunning:
		content = fmt.Sprintf("%s Running %s...", a.spin.View(), a.running)
	case stateResult:
		content = a.renderResult()
	}

	sections := []string{header, boxStyle.Render(content)}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, footerStyle.Render(a.statusMsg))
	return strings.Join(sections, "\n")
}

func (a *App) renderResult() string {
	if a.lastErr != nil {
		return fmt.Sprintf("%s\n%s\n\n%s",
			failStyle.Render("FAILED"),
			a.lastErr.Error(),
			"Press enter to return to the menu")
	}
	var head string
	switch a.lastResult.Status {
	case task.StatusCompleted:
		head = okStyle.Render("COMPLETED")
	case task.StatusNoOp:
		head = noopStyle.Render("NOTHING TO DO")
	default:
		head = failStyle.Render(strings.ToUpper(string(a.lastResult.Status)))
	}
	return fmt.Sprintf("%s\n%s\n\n%s", head, a.lastResult.Message,
		"Press enter to return to the menu")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if total == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := logHeadStyle.Render(fmt.Sprintf("LOG · %s (%d entries)", fileName, total))
	body := logBodyStyle.Render(strings.Join(lines, "\n"))
	return boxStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
