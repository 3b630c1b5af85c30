// Package tui is the terminal front end: one screen per quiz phase.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pavelanni/instantquiz/internal/i18n"
	"github.com/pavelanni/instantquiz/internal/model"
	"github.com/pavelanni/instantquiz/internal/session"
)

const tickInterval = time.Second

// Model is the Bubble Tea model for the whole application.
type Model struct {
	ctx    context.Context
	app    *App
	styles styles

	path   textinput.Model
	answer textinput.Model
	table  table.Model

	cfg        model.QuizConfig
	total      int
	notice     string
	errMsg     string
	cursor     int
	confirming bool
	filter     int
	now        time.Time
	width      int
}

// Options configures the model.
type Options struct {
	// Path preloads a question file, skipping the ingestion prompt on success.
	Path    string
	NoColor bool
}

// NewModel builds the model. ctx carries the localizer used for every string.
func NewModel(ctx context.Context, app *App, opts Options) Model {
	path := textinput.New()
	path.Placeholder = "questions.csv"
	path.CharLimit = 4096
	path.Focus()

	answer := textinput.New()
	answer.CharLimit = 512

	m := Model{
		ctx:    ctx,
		app:    app,
		styles: newStyles(opts.NoColor),
		path:   path,
		answer: answer,
		table:  newResultsTable(ctx, opts.NoColor),
		now:    time.Now(),
	}
	if opts.Path != "" {
		m.path.SetValue(opts.Path)
		m = m.load()
	}
	return m
}

// Init starts the cursor blink and the clock tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

// tickMsg carries a clock tick for the countdown.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update routes messages to the screen of the current phase.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.table.SetWidth(typed.Width)
		m.table.SetHeight(max(typed.Height-14, 3))
	case tickMsg:
		m.now = time.Time(typed)
		cmd = tick()
	case tea.KeyMsg:
		if typed.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.phase() {
		case model.PhaseIngestion:
			m, cmd = m.updateIngestion(typed)
		case model.PhaseConfiguration:
			m, cmd = m.updateConfiguration(typed)
		case model.PhaseExam:
			m, cmd = m.updateExam(typed)
		case model.PhaseAnalytics:
			m, cmd = m.updateAnalytics(typed)
		}
	}

	if m.phase() == model.PhaseAnalytics {
		m.refreshTable()
	}
	return m, cmd
}

func (m Model) phase() model.Phase {
	return m.app.Session().Phase()
}

func (m Model) updateIngestion(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.load(), nil
	case tea.KeyEsc:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

// load parses the file named in the path input.
func (m Model) load() Model {
	cfg, n, err := m.app.Load(m.path.Value())
	if err != nil {
		m.notice = ""
		m.errMsg = i18n.Td(m.ctx, "LoadFailed", map[string]any{"Error": FirstError(err)})
		return m
	}
	m.cfg = cfg
	m.total = n
	m.errMsg = ""
	m.notice = i18n.Tp(m.ctx, "QuestionsLoaded", n)
	m.path.Blur()
	return m
}

func (m Model) updateConfiguration(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := m.app.Start(m.cfg); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.notice = ""
		m.confirming = false
		return m.enterQuestion(), nil
	case tea.KeyEsc:
		return m.newFile(), textinput.Blink
	}

	c := &m.cfg
	switch msg.String() {
	case "+", "=":
		c.QuestionCount = min(c.QuestionCount+1, m.total)
	case "-":
		c.QuestionCount = max(c.QuestionCount-1, 1)
	case "t":
		c.TimerEnabled = !c.TimerEnabled
	case "]":
		c.TimerMinutes = min(c.TimerMinutes+5, model.MaxTimerMinutes)
	case "[":
		c.TimerMinutes = max(c.TimerMinutes-5, model.MinTimerMinutes)
	case ">", ".":
		c.PassingScore = min(c.PassingScore+5, 100)
	case "<", ",":
		c.PassingScore = max(c.PassingScore-5, 0)
	case "s":
		c.ShuffleQuestions = !c.ShuffleQuestions
	case "o":
		c.ShuffleOptions = !c.ShuffleOptions
	}
	return m, nil
}

func (m Model) updateExam(msg tea.KeyMsg) (Model, tea.Cmd) {
	sess := m.app.Session()
	snap := sess.Snapshot()
	q, ok := snap.Current()
	if !ok {
		return m, nil
	}
	i := snap.State.CurrentIndex

	if m.confirming {
		switch msg.String() {
		case "y", "Y":
			m.confirming = false
			sess.SubmitQuiz()
			m.answer.Blur()
		case "n", "N", "esc":
			m.confirming = false
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlS:
		m.confirming = true
		return m, nil
	case tea.KeyCtrlN:
		m.setErr(sess.Next())
		return m.enterQuestion(), nil
	case tea.KeyCtrlP:
		m.setErr(sess.Previous())
		return m.enterQuestion(), nil
	case tea.KeyCtrlR:
		m.setErr(sess.ToggleMarkForReview(i))
		return m, nil
	}

	if q.Kind == model.KindFillInBlank {
		var cmd tea.Cmd
		m.answer, cmd = m.answer.Update(msg)
		m.setErr(sess.SetAnswer(i, model.TextAnswer(m.answer.Value())))
		return m, cmd
	}

	switch {
	case msg.Type == tea.KeyUp || msg.String() == "k":
		m.cursor = max(m.cursor-1, 0)
	case msg.Type == tea.KeyDown || msg.String() == "j":
		m.cursor = min(m.cursor+1, len(q.Options)-1)
	case msg.Type == tea.KeySpace || msg.Type == tea.KeyEnter || msg.String() == " ":
		m.setErr(sess.ToggleOption(i, model.OptionLetter(m.cursor)))
	default:
		if idx := optionKey(msg, len(q.Options)); idx >= 0 {
			m.cursor = idx
			m.setErr(sess.ToggleOption(i, model.OptionLetter(idx)))
		}
	}
	return m, nil
}

// optionKey maps a letter or digit key to an option index, or -1.
func optionKey(msg tea.KeyMsg, n int) int {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return -1
	}
	r := msg.Runes[0]
	idx := -1
	switch {
	case r >= 'a' && r <= 'z':
		idx = int(r - 'a')
	case r >= 'A' && r <= 'Z':
		idx = int(r - 'A')
	case r >= '1' && r <= '9':
		idx = int(r - '1')
	}
	if idx >= n {
		return -1
	}
	return idx
}

// enterQuestion resets per-question widgets for the current question.
func (m Model) enterQuestion() Model {
	snap := m.app.Session().Snapshot()
	q, ok := snap.Current()
	m.cursor = 0
	if !ok || q.Kind != model.KindFillInBlank {
		m.answer.Blur()
		return m
	}
	m.answer.SetValue(snap.State.Answers[snap.State.CurrentIndex].Text)
	m.answer.CursorEnd()
	m.answer.Focus()
	return m
}

func (m Model) updateAnalytics(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab:
		m.filter = (m.filter + 1) % len(model.ResultFilters)
		m.table.SetCursor(0)
		return m, nil
	case tea.KeyShiftTab:
		m.filter = (m.filter + len(model.ResultFilters) - 1) % len(model.ResultFilters)
		m.table.SetCursor(0)
		return m, nil
	case tea.KeyEsc:
		return m, tea.Quit
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		if err := m.app.Session().RetakeQuiz(); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.cfg = m.app.Session().Config()
		m.filter = 0
		return m, nil
	case "n":
		return m.newFile(), textinput.Blink
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// newFile discards the session and returns to the file prompt.
func (m Model) newFile() Model {
	m.app.Session().Reset()
	m.path.SetValue("")
	m.path.Focus()
	m.notice = ""
	m.errMsg = ""
	m.filter = 0
	m.total = 0
	return m
}

// setErr shows err unless it only reports that the exam already ended.
func (m *Model) setErr(err error) {
	switch {
	case err == nil:
		m.errMsg = ""
	case errors.Is(err, session.ErrWrongPhase):
	default:
		m.errMsg = err.Error()
	}
}

func (m *Model) refreshTable() {
	report, ok := m.app.Session().Results()
	if !ok {
		m.table.SetRows(nil)
		return
	}
	m.table.SetRows(resultRows(m.ctx, report.Filter(m.currentFilter())))
}

func (m Model) currentFilter() model.ResultFilter {
	return model.ResultFilters[m.filter]
}
