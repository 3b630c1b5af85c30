package tui

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pavelanni/instantquiz/internal/i18n"
	"github.com/pavelanni/instantquiz/internal/model"
	"github.com/pavelanni/instantquiz/internal/session"
	"github.com/pavelanni/instantquiz/internal/store"
)

const sampleCSV = `Question,Option A,Option B,Option C,Option D,Answer
What is 2+2?,3,4,blank,blank,B
Pick primes,2,4,5,9,"A,C"
What syntax does React use?,blank,blank,blank,blank,JSX|JavaScript XML
`

func testContext(t *testing.T) context.Context {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	return i18n.WithLocalizer(context.Background(), i18n.NewLocalizer("en"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newTestApp(t *testing.T, defaults model.QuizConfig) *App {
	t.Helper()
	st, err := store.New(store.MemoryDSN)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewApp(st, defaults, session.WithRand(rand.New(rand.NewPCG(1, 1))))
}

func TestAppLoadAndRecord(t *testing.T) {
	app := newTestApp(t, model.QuizConfig{PassingScore: 60})
	path := writeFile(t, "quiz.csv", sampleCSV)

	cfg, n, err := app.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 3 || cfg.QuestionCount != 3 || cfg.PassingScore != 60 || cfg.TimerMinutes != model.DefaultTimer {
		t.Fatalf("Load = %+v, %d", cfg, n)
	}

	if err := app.Start(cfg); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess := app.Session()
	if err := sess.SetAnswer(0, model.ChoiceAnswer("B")); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	sess.SubmitQuiz()

	summary, best, ok := app.LastAttempt()
	if !ok || summary.Number != 1 || best != 33 {
		t.Errorf("LastAttempt = %+v, best %d, ok %v", summary, best, ok)
	}

	export, ok, err := app.Export()
	if err != nil || !ok {
		t.Fatalf("Export = ok %v, err %v", ok, err)
	}
	if export.Source != "quiz.csv" || export.Format != "tabular" || len(export.Attempts) != 1 {
		t.Errorf("export = %+v", export)
	}
}

func TestAppReloadReusesPoolAndConfig(t *testing.T) {
	app := newTestApp(t, model.QuizConfig{PassingScore: 70})
	path := writeFile(t, "quiz.csv", sampleCSV)

	cfg, _, err := app.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.QuestionCount = 2
	cfg.ShuffleOptions = true
	if err := app.Start(cfg); err != nil {
		t.Fatalf("Start: %v", err)
	}
	app.Session().SubmitQuiz()

	again, _, err := app.Load(path)
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if again != cfg {
		t.Errorf("reloaded config = %+v, want %+v", again, cfg)
	}
	if _, _, ok := app.LastAttempt(); ok {
		t.Error("last attempt should reset on load")
	}
}

func TestAppLoadErrors(t *testing.T) {
	app := newTestApp(t, model.QuizConfig{})

	if _, _, err := app.Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeFile(t, "bad.csv", "Q1,a,b,c,d,Z\nQ2,a,b,c,d,Y\n")
	_, _, err := app.Load(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := FirstError(err); !strings.HasPrefix(got, "Row 1:") {
		t.Errorf("FirstError = %q, want the row 1 issue", got)
	}
	if app.Session().Phase() != model.PhaseIngestion {
		t.Error("failed load changed phase")
	}
	if _, ok, _ := app.Export(); ok {
		t.Error("export without a pool reported ok")
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

// TestModelFullRun drives every screen with key presses.
func TestModelFullRun(t *testing.T) {
	ctx := testContext(t)
	app := newTestApp(t, model.QuizConfig{PassingScore: 70})
	path := writeFile(t, "quiz.csv", sampleCSV)

	m := NewModel(ctx, app, Options{NoColor: true})
	if !strings.Contains(m.View(), "Path to a question file") {
		t.Fatalf("ingestion view = %q", m.View())
	}

	m = typeText(m, path)
	m = send(m, "enter")
	if got := app.Session().Phase(); got != model.PhaseConfiguration {
		t.Fatalf("phase after load = %s, error %q", got, m.errMsg)
	}
	if !strings.Contains(m.View(), "Successfully loaded 3 questions.") {
		t.Errorf("configuration view = %q", m.View())
	}

	m = send(m, "t", "enter")
	if got := app.Session().Phase(); got != model.PhaseExam {
		t.Fatalf("phase after start = %s, error %q", got, m.errMsg)
	}
	if !strings.Contains(m.View(), "Question 1 of 3") || !strings.Contains(m.View(), "Time left 30:00") {
		t.Errorf("exam view = %q", m.View())
	}

	// Question 1: move to B and select it.
	m = send(m, "down", "space", "ctrl+n")
	// Question 2: choose A and C by letter, mark it.
	m = send(m, "a", "c", "ctrl+r", "ctrl+n")
	// Question 3: type the answer.
	m = typeText(m, "jsx")

	snap := app.Session().Snapshot()
	if snap.State.Answers[0].Choice != "B" {
		t.Errorf("answer 1 = %+v", snap.State.Answers[0])
	}
	if got := snap.State.Answers[1].Choices; len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Errorf("answer 2 = %+v", got)
	}
	if snap.State.Answers[2].Text != "jsx" {
		t.Errorf("answer 3 = %+v", snap.State.Answers[2])
	}
	if !snap.State.Marked[1] {
		t.Error("question 2 not marked")
	}

	m = send(m, "ctrl+s")
	if !strings.Contains(m.View(), "Submit the quiz? (y/n)") {
		t.Errorf("confirm view = %q", m.View())
	}
	m = send(m, "y")
	if got := app.Session().Phase(); got != model.PhaseAnalytics {
		t.Fatalf("phase after submit = %s", got)
	}
	view := m.View()
	for _, want := range []string{"Score 100%", "PASSED", "Attempt 1", "Time "} {
		if !strings.Contains(view, want) {
			t.Errorf("results view missing %q:\n%s", want, view)
		}
	}

	m = send(m, "tab", "tab", "tab")
	if m.currentFilter() != model.FilterMarked || len(m.table.Rows()) != 1 {
		t.Errorf("marked filter = %s with %d rows", m.currentFilter(), len(m.table.Rows()))
	}
	m = send(m, "tab", "tab", "tab")
	if m.currentFilter() != model.FilterIncorrect || !strings.Contains(m.View(), "No questions match") {
		t.Errorf("incorrect filter view = %q", m.View())
	}

	m = send(m, "r")
	if got := app.Session().Phase(); got != model.PhaseConfiguration || !m.cfg.TimerEnabled {
		t.Errorf("after retake phase = %s cfg = %+v", got, m.cfg)
	}

	m = send(m, "enter", "ctrl+s")
	if !strings.Contains(m.View(), "3 questions are unanswered") {
		t.Errorf("confirm view = %q", m.View())
	}
	m = send(m, "y")
	if summary, best, _ := app.LastAttempt(); summary.Number != 2 || best != 100 {
		t.Errorf("second attempt = %+v best %d", summary, best)
	}

	m = send(m, "n")
	if got := app.Session().Phase(); got != model.PhaseIngestion {
		t.Errorf("phase after new file = %s", got)
	}
}

func TestModelLoadErrorShowsFirstIssue(t *testing.T) {
	ctx := testContext(t)
	app := newTestApp(t, model.QuizConfig{})
	path := writeFile(t, "bad.csv", "Q,blank,blank,blank,blank,\n")

	m := NewModel(ctx, app, Options{Path: path, NoColor: true})
	if app.Session().Phase() != model.PhaseIngestion {
		t.Fatal("bad file was accepted")
	}
	if !strings.Contains(m.View(), "Could not load questions: Row 1:") {
		t.Errorf("view = %q", m.View())
	}
}

func TestModelTickReschedules(t *testing.T) {
	ctx := testContext(t)
	app := newTestApp(t, model.QuizConfig{TimerEnabled: true, TimerMinutes: 1})
	path := writeFile(t, "quiz.csv", sampleCSV)

	m := NewModel(ctx, app, Options{Path: path, NoColor: true})
	m = send(m, "enter")
	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if cmd == nil {
		t.Error("tick did not schedule the next tick")
	}
	if !strings.Contains(m.View(), "Time left 01:00") && !strings.Contains(m.View(), "Time left 00:59") {
		t.Errorf("exam view = %q", m.View())
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{59*time.Second + 100*time.Millisecond, "01:00"},
		{5 * time.Minute, "05:00"},
		{125 * time.Minute, "125:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.d); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short   text", 40); got != "short text" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate(strings.Repeat("я", 50), 10); got != strings.Repeat("я", 7)+"..." {
		t.Errorf("truncate = %q", got)
	}
}
