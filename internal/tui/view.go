package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/pavelanni/instantquiz/internal/i18n"
	"github.com/pavelanni/instantquiz/internal/model"
)

// warnThreshold is the remaining time at which the countdown turns red.
const warnThreshold = 5 * time.Minute

type styles struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
	warn     lipgloss.Style
	pass     lipgloss.Style
	fail     lipgloss.Style
	errText  lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		warn:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		pass:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		fail:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// View renders the screen of the current phase.
func (m Model) View() string {
	var body string
	switch m.phase() {
	case model.PhaseIngestion:
		body = m.viewIngestion()
	case model.PhaseConfiguration:
		body = m.viewConfiguration()
	case model.PhaseExam:
		body = m.viewExam()
	case model.PhaseAnalytics:
		body = m.viewAnalytics()
	}
	header := m.styles.title.Render(i18n.T(m.ctx, "AppTitle"))
	parts := []string{header, "", body}
	if m.errMsg != "" {
		parts = append(parts, "", m.styles.errText.Render(m.errMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m Model) viewIngestion() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		i18n.T(m.ctx, "PromptFile"),
		m.path.View(),
		"",
		m.styles.muted.Render(i18n.T(m.ctx, "IngestHelp")),
	)
}

func (m Model) viewConfiguration() string {
	c := m.cfg
	timer := i18n.T(m.ctx, "ConfigTimerOff")
	if c.TimerEnabled {
		timer = i18n.Td(m.ctx, "ConfigTimer", map[string]any{"Minutes": c.TimerMinutes})
	}
	lines := []string{}
	if m.notice != "" {
		lines = append(lines, m.styles.pass.Render(m.notice), "")
	}
	lines = append(lines,
		m.styles.title.Render(i18n.T(m.ctx, "ConfigTitle")),
		i18n.Td(m.ctx, "ConfigQuestions", map[string]any{"Count": c.QuestionCount, "Total": m.total}),
		timer,
		i18n.Td(m.ctx, "ConfigPassing", map[string]any{"Score": c.PassingScore}),
		i18n.Td(m.ctx, "ConfigShuffleQuestions", map[string]any{"Value": m.yesNo(c.ShuffleQuestions)}),
		i18n.Td(m.ctx, "ConfigShuffleOptions", map[string]any{"Value": m.yesNo(c.ShuffleOptions)}),
		"",
		m.styles.muted.Render(i18n.T(m.ctx, "ConfigHelp")),
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) yesNo(v bool) string {
	if v {
		return i18n.T(m.ctx, "Yes")
	}
	return i18n.T(m.ctx, "No")
}

func (m Model) viewExam() string {
	sess := m.app.Session()
	snap := sess.Snapshot()
	q, ok := snap.Current()
	if !ok {
		return ""
	}
	i := snap.State.CurrentIndex
	total := len(snap.Exam)

	status := []string{
		i18n.Td(m.ctx, "QuestionN", map[string]any{"N": i + 1, "Total": total}),
		i18n.Td(m.ctx, "Answered", map[string]any{"Answered": snap.State.AnsweredCount(), "Total": total}),
	}
	if remaining, ok := sess.TimeRemaining(); ok {
		left := i18n.Td(m.ctx, "TimeLeft", map[string]any{"Time": formatClock(remaining)})
		if remaining <= warnThreshold {
			left = m.styles.warn.Render(left)
		}
		status = append(status, left)
	}
	if snap.State.Marked[i] {
		status = append(status, m.styles.selected.Render(i18n.T(m.ctx, "Marked")))
	}

	lines := []string{
		m.styles.muted.Render(strings.Join(status, " · ")),
		"",
		q.Text,
		"",
	}
	answer := snap.State.Answers[i]
	if q.Kind == model.KindFillInBlank {
		lines = append(lines, m.answer.View())
	} else {
		if q.Kind == model.KindMultiSelect {
			lines = append(lines, m.styles.muted.Render(i18n.T(m.ctx, "SelectAll")))
		}
		for idx, opt := range q.Options {
			lines = append(lines, m.renderOption(q.Kind, idx, opt, answer))
		}
	}

	lines = append(lines, "")
	if m.confirming {
		unanswered := total - snap.State.AnsweredCount()
		prompt := i18n.T(m.ctx, "ConfirmSubmitAll")
		if unanswered > 0 {
			prompt = i18n.Tp(m.ctx, "ConfirmSubmit", unanswered)
		}
		lines = append(lines, m.styles.warn.Render(prompt))
	} else {
		lines = append(lines, m.styles.muted.Render(i18n.T(m.ctx, "ExamHelp")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderOption(kind model.Kind, idx int, text string, answer model.Answer) string {
	letter := model.OptionLetter(idx)
	chosen := answer.Choice == letter
	for _, c := range answer.Choices {
		if c == letter {
			chosen = true
		}
	}

	marker := "( )"
	if kind == model.KindMultiSelect {
		marker = "[ ]"
	}
	if chosen {
		marker = "(•)"
		if kind == model.KindMultiSelect {
			marker = "[x]"
		}
	}
	pointer := "  "
	if idx == m.cursor {
		pointer = "> "
	}
	line := pointer + marker + " " + letter + ". " + text
	if idx == m.cursor || chosen {
		return m.styles.selected.Render(line)
	}
	return line
}

func (m Model) viewAnalytics() string {
	report, ok := m.app.Session().Results()
	if !ok {
		return ""
	}

	verdict := m.styles.fail.Render(i18n.T(m.ctx, "Failed"))
	if report.Passed {
		verdict = m.styles.pass.Render(i18n.T(m.ctx, "Passed"))
	}
	lines := []string{
		m.styles.title.Render(i18n.T(m.ctx, "ResultsTitle")),
		i18n.Td(m.ctx, "ScoreLine", map[string]any{"Score": report.Score, "Passing": report.PassingScore}) + "  " + verdict,
		i18n.Td(m.ctx, "Counts", map[string]any{
			"Correct":    report.CorrectCount,
			"Incorrect":  report.IncorrectCount,
			"Unanswered": report.UnansweredCount,
		}),
	}
	if report.TimeSpent != nil && report.TimeLimit != nil {
		lines = append(lines, i18n.Td(m.ctx, "TimeSpent", map[string]any{
			"Spent": formatClock(time.Duration(*report.TimeSpent) * time.Second),
			"Limit": formatClock(time.Duration(*report.TimeLimit) * time.Second),
		}))
	}
	if summary, best, ok := m.app.LastAttempt(); ok {
		lines = append(lines, m.styles.muted.Render(
			i18n.Td(m.ctx, "AttemptLine", map[string]any{"Number": summary.Number, "Best": best})))
	}

	lines = append(lines, "", i18n.Td(m.ctx, "FilterLine", map[string]any{"Filter": m.filterLabel()}))
	results := report.Filter(m.currentFilter())
	if len(results) == 0 {
		lines = append(lines, m.styles.muted.Render(i18n.T(m.ctx, "NoMatches")))
	} else {
		lines = append(lines, m.table.View())
		if c := m.table.Cursor(); c >= 0 && c < len(results) && results[c].Explanation != "" {
			lines = append(lines, i18n.Td(m.ctx, "Explanation", map[string]any{"Text": results[c].Explanation}))
		}
	}
	lines = append(lines, "", m.styles.muted.Render(i18n.T(m.ctx, "ResultsHelp")))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) filterLabel() string {
	labels := map[model.ResultFilter]string{
		model.FilterAll:       "FilterAll",
		model.FilterCorrect:   "FilterCorrect",
		model.FilterIncorrect: "FilterIncorrect",
		model.FilterMarked:    "FilterMarked",
	}
	return i18n.T(m.ctx, labels[m.currentFilter()])
}

func newResultsTable(ctx context.Context, noColor bool) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: i18n.T(ctx, "ColNumber"), Width: 4},
			{Title: i18n.T(ctx, "ColStatus"), Width: 12},
			{Title: i18n.T(ctx, "ColQuestion"), Width: 40},
			{Title: i18n.T(ctx, "ColAnswer"), Width: 16},
			{Title: i18n.T(ctx, "ColCorrect"), Width: 20},
		}),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	if noColor {
		s.Selected = lipgloss.NewStyle()
	} else {
		s.Header = s.Header.Bold(true).Foreground(lipgloss.Color("33"))
		s.Selected = s.Selected.Foreground(lipgloss.Color("212")).Bold(true)
	}
	t.SetStyles(s)
	return t
}

// resultRows renders question results as table rows.
func resultRows(ctx context.Context, results []model.QuestionResult) []table.Row {
	statusKeys := map[model.ResultStatus]string{
		model.StatusCorrect:    "StatusCorrect",
		model.StatusIncorrect:  "StatusIncorrect",
		model.StatusUnanswered: "StatusUnanswered",
	}
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		answer := r.UserAnswer.Display()
		if r.UserAnswer.IsEmpty() {
			answer = i18n.T(ctx, "NoAnswer")
		}
		rows = append(rows, table.Row{
			strconv.Itoa(r.Index + 1),
			i18n.T(ctx, statusKeys[r.Status]),
			truncate(r.Text, 40),
			answer,
			correctAnswer(r),
		})
	}
	return rows
}

// correctAnswer renders the expected answer of a result.
func correctAnswer(r model.QuestionResult) string {
	if r.Kind == model.KindFillInBlank {
		return strings.Join(r.AcceptableAnswers, " | ")
	}
	return strings.Join(r.CorrectAnswers, ", ")
}

// formatClock renders a duration as mm:ss, rounding partial seconds up.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// truncate shortens text to at most limit runes.
func truncate(text string, limit int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if len(runes) <= limit {
		return normalized
	}
	return string(runes[:limit-3]) + "..."
}
