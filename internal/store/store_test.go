package store

import (
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/instantquiz/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(MemoryDSN)
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuestions() []model.Question {
	return []model.Question{
		{ID: "a", Text: "2+2?", Kind: model.KindSingleChoice, Options: []string{"3", "4"}, CorrectAnswers: []string{"B"}},
		{ID: "b", Text: "React syntax", Kind: model.KindFillInBlank, AcceptableAnswers: []string{"JSX"},
			Metadata: map[string]any{"topic": "web"}},
	}
}

func savePool(t *testing.T, s *Store, data string) Pool {
	t.Helper()
	pool, _, err := s.SavePool("quiz.json", "json", []byte(data), testQuestions())
	if err != nil {
		t.Fatalf("SavePool: %v", err)
	}
	return pool
}

func testReport(score int, passed bool) model.ResultsReport {
	return model.ResultsReport{
		Score:          score,
		TotalQuestions: 2,
		Passed:         passed,
		PassingScore:   70,
		SubmittedAt:    time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		Questions: []model.QuestionResult{
			{Index: 0, ID: "a", Status: model.StatusCorrect, IsCorrect: true, UserAnswer: model.ChoiceAnswer("B")},
		},
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("questions"))
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a != Fingerprint([]byte("questions")) {
		t.Error("fingerprint is not stable")
	}
	if a == Fingerprint([]byte("questions!")) {
		t.Error("different content produced the same fingerprint")
	}
}

func TestSavePoolDeduplicates(t *testing.T) {
	s := newTestStore(t)

	first, created, err := s.SavePool("quiz.csv", "tabular", []byte("content"), testQuestions())
	if err != nil {
		t.Fatalf("SavePool: %v", err)
	}
	if !created || first.ID == 0 || first.QuestionCount != 2 {
		t.Fatalf("first save = %+v created=%v", first, created)
	}

	again, created, err := s.SavePool("copy.csv", "tabular", []byte("content"), testQuestions())
	if err != nil {
		t.Fatalf("SavePool again: %v", err)
	}
	if created || again.ID != first.ID || again.Source != "quiz.csv" {
		t.Errorf("second save = %+v created=%v, want existing pool", again, created)
	}

	other := savePool(t, s, "other content")
	if other.ID == first.ID {
		t.Error("different content reused a pool")
	}
}

func TestPoolQuestionsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	pool := savePool(t, s, "data")

	got, err := s.PoolQuestions(pool.ID)
	if err != nil {
		t.Fatalf("PoolQuestions: %v", err)
	}
	want := testQuestions()
	if len(got) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(got))
	}
	if got[0].ID != "a" || got[0].CorrectAnswers[0] != "B" || got[1].Kind != model.KindFillInBlank {
		t.Errorf("questions = %+v", got)
	}
	if got[1].Metadata["topic"] != "web" {
		t.Errorf("metadata lost: %+v", got[1].Metadata)
	}

	if _, err := s.PoolQuestions(9999); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestAttempts(t *testing.T) {
	s := newTestStore(t)
	pool := savePool(t, s, "data")

	if _, ok, err := s.BestScore(pool.ID); err != nil || ok {
		t.Fatalf("BestScore on empty pool = ok %v, err %v", ok, err)
	}

	for i, score := range []int{40, 90, 70} {
		summary, err := s.RecordAttempt(pool.ID, testReport(score, score >= 70))
		if err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
		if summary.Number != i+1 {
			t.Errorf("attempt number = %d, want %d", summary.Number, i+1)
		}
	}

	attempts, err := s.ListAttempts(pool.ID)
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(attempts))
	}
	if attempts[0].Score != 40 || attempts[0].Passed || !attempts[1].Passed {
		t.Errorf("attempts = %+v", attempts)
	}

	best, ok, err := s.BestScore(pool.ID)
	if err != nil || !ok || best != 90 {
		t.Errorf("BestScore = %d, %v, %v, want 90", best, ok, err)
	}

	other := savePool(t, s, "other")
	summary, err := s.RecordAttempt(other.ID, testReport(10, false))
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if summary.Number != 1 {
		t.Errorf("attempt numbers are not per pool: got %d", summary.Number)
	}
}

func TestExportAttempts(t *testing.T) {
	s := newTestStore(t)
	pool := savePool(t, s, "data")

	empty, err := s.ExportAttempts(pool.ID)
	if err != nil {
		t.Fatalf("ExportAttempts: %v", err)
	}
	if empty.Attempts == nil || len(empty.Attempts) != 0 {
		t.Errorf("expected empty non-nil attempts, got %#v", empty.Attempts)
	}

	if _, err := s.RecordAttempt(pool.ID, testReport(100, true)); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	export, err := s.ExportAttempts(pool.ID)
	if err != nil {
		t.Fatalf("ExportAttempts: %v", err)
	}
	if export.Source != "quiz.json" || export.Format != "json" {
		t.Errorf("export header = %q %q", export.Source, export.Format)
	}
	if len(export.Attempts) != 1 || export.Attempts[0].Score != 100 {
		t.Fatalf("export attempts = %+v", export.Attempts)
	}
	if got := export.Attempts[0].Questions[0].UserAnswer.Choice; got != "B" {
		t.Errorf("user answer = %q, want B", got)
	}

	if _, err := s.ExportAttempts(9999); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestConfigSettings(t *testing.T) {
	s := newTestStore(t)
	pool := savePool(t, s, "data")

	if _, ok, err := s.LoadConfig(pool.ID); err != nil || ok {
		t.Fatalf("LoadConfig before save = ok %v, err %v", ok, err)
	}

	want := model.QuizConfig{
		QuestionCount:    2,
		TimerEnabled:     true,
		TimerMinutes:     15,
		PassingScore:     80,
		ShuffleQuestions: true,
	}
	if err := s.SaveConfig(pool.ID, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	want.TimerMinutes = 20
	if err := s.SaveConfig(pool.ID, want); err != nil {
		t.Fatalf("SaveConfig overwrite: %v", err)
	}

	got, ok, err := s.LoadConfig(pool.ID)
	if err != nil || !ok {
		t.Fatalf("LoadConfig = ok %v, err %v", ok, err)
	}
	if got != want {
		t.Errorf("LoadConfig = %+v, want %+v", got, want)
	}

	v, err := s.PoolSetting(pool.ID, "missing")
	if err != nil || v != "" {
		t.Errorf("PoolSetting(missing) = %q, %v", v, err)
	}
}
