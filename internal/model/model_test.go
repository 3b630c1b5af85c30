package model

import (
	"errors"
	"testing"
	"time"
)

func TestLetterIndex(t *testing.T) {
	tests := []struct {
		letter string
		want   int
	}{
		{"A", 0},
		{"b", 1},
		{" E ", 4},
		{"", -1},
		{"AB", -1},
		{"1", -1},
	}
	for _, tt := range tests {
		if got := LetterIndex(tt.letter); got != tt.want {
			t.Errorf("LetterIndex(%q) = %d, want %d", tt.letter, got, tt.want)
		}
	}
	if got := OptionLetter(2); got != "C" {
		t.Errorf("OptionLetter(2) = %q, want %q", got, "C")
	}
}

func TestNormalizeAnswerText(t *testing.T) {
	if got, want := NormalizeAnswerText(" JSX "), NormalizeAnswerText("jsx"); got != want {
		t.Errorf("NormalizeAnswerText mismatch: %q vs %q", got, want)
	}
	if NormalizeAnswerText("ÉCOLE") != NormalizeAnswerText("école") {
		t.Error("expected case folding to match ÉCOLE and école")
	}
}

func TestAnswerIsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		answer Answer
		want   bool
	}{
		{"zero", Answer{}, true},
		{"blank text", TextAnswer("   "), true},
		{"empty set", ChoicesAnswer(), true},
		{"letter", ChoiceAnswer("b"), false},
		{"set", ChoicesAnswer("A", "C"), false},
		{"text", TextAnswer("jsx"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.answer.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChoicesAnswerDeduplicates(t *testing.T) {
	a := ChoicesAnswer("a", "C", "A", " ")
	if len(a.Choices) != 2 || a.Choices[0] != "A" || a.Choices[1] != "C" {
		t.Errorf("ChoicesAnswer() = %v, want [A C]", a.Choices)
	}
}

func TestAnswerFits(t *testing.T) {
	if !ChoiceAnswer("A").Fits(KindSingleChoice) {
		t.Error("letter should fit single-choice")
	}
	if ChoiceAnswer("A").Fits(KindMultiSelect) {
		t.Error("single letter should not fit multi-select")
	}
	if !ChoicesAnswer("A", "B").Fits(KindMultiSelect) {
		t.Error("letter set should fit multi-select")
	}
	if TextAnswer("x").Fits(KindSingleChoice) {
		t.Error("text should not fit single-choice")
	}
	if !(Answer{}).Fits(KindFillInBlank) {
		t.Error("empty answer should fit every kind")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    QuizConfig
		total  int
		fields []string
	}{
		{"defaults", DefaultConfig(5), 5, nil},
		{"zero count", QuizConfig{QuestionCount: 0, PassingScore: 70}, 5, []string{"question_count"}},
		{"too many", QuizConfig{QuestionCount: 6, PassingScore: 70}, 5, []string{"question_count"}},
		{"timer off ignores minutes", QuizConfig{QuestionCount: 1, TimerMinutes: 0}, 5, nil},
		{"timer bounds", QuizConfig{QuestionCount: 1, TimerEnabled: true, TimerMinutes: 1000}, 5, []string{"timer_minutes"}},
		{"passing score", QuizConfig{QuestionCount: 1, PassingScore: 101}, 5, []string{"passing_score"}},
		{"all bad", QuizConfig{TimerEnabled: true, PassingScore: -1}, 5, []string{"question_count", "timer_minutes", "passing_score"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.total)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if len(cfgErr.Issues) != len(tt.fields) {
				t.Fatalf("expected %d issues, got %v", len(tt.fields), cfgErr.Issues)
			}
			for i, f := range tt.fields {
				if cfgErr.Issues[i].Field != f {
					t.Errorf("issue %d field = %q, want %q", i, cfgErr.Issues[i].Field, f)
				}
			}
		})
	}
}

func TestReportFilter(t *testing.T) {
	r := ResultsReport{Questions: []QuestionResult{
		{Index: 0, Status: StatusCorrect},
		{Index: 1, Status: StatusIncorrect, MarkedForReview: true},
		{Index: 2, Status: StatusUnanswered},
	}}
	tests := []struct {
		filter ResultFilter
		want   []int
	}{
		{FilterAll, []int{0, 1, 2}},
		{FilterCorrect, []int{0}},
		{FilterIncorrect, []int{1}},
		{FilterMarked, []int{1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := r.Filter(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%s) returned %d results, want %d", tt.filter, len(got), len(tt.want))
			}
			for i, idx := range tt.want {
				if got[i].Index != idx {
					t.Errorf("Filter(%s)[%d].Index = %d, want %d", tt.filter, i, got[i].Index, idx)
				}
			}
		})
	}
}

func TestExamStateClone(t *testing.T) {
	s := NewExamState(2, time.Time{})
	s.Answers[0] = ChoicesAnswer("A")
	s.Marked[1] = true
	c := s.Clone()
	c.Answers[0].Choices[0] = "B"
	c.Marked[0] = true
	if s.Answers[0].Choices[0] != "A" {
		t.Error("clone shares answer sets with the original")
	}
	if s.Marked[0] {
		t.Error("clone shares the marked set with the original")
	}
}
