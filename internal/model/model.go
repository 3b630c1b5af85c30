package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Kind is the answer format of a question.
type Kind string

const (
	// KindSingleChoice has exactly one correct option.
	KindSingleChoice Kind = "single-choice"
	// KindMultiSelect has one or more correct options, scored all-or-nothing.
	KindMultiSelect Kind = "multi-select"
	// KindFillInBlank is answered with free text.
	KindFillInBlank Kind = "fill-in-blank"
)

// IsChoice reports whether questions of this kind carry options.
func (k Kind) IsChoice() bool {
	return k == KindSingleChoice || k == KindMultiSelect
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k.IsChoice() || k == KindFillInBlank
}

// Option count bounds for choice questions.
const (
	MinOptions = 2
	MaxOptions = 5
)

// Phase is a stage of the quiz lifecycle.
type Phase string

const (
	PhaseIngestion     Phase = "ingestion"
	PhaseConfiguration Phase = "configuration"
	PhaseExam          Phase = "exam"
	PhaseAnalytics     Phase = "analytics"
)

// Question is a normalized quiz question. It is treated as immutable once parsed.
type Question struct {
	ID                string         `json:"id" yaml:"id"`
	Text              string         `json:"question" yaml:"question"`
	Kind              Kind           `json:"type" yaml:"type"`
	Options           []string       `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswers    []string       `json:"correctAnswers,omitempty" yaml:"correctAnswers,omitempty"` // option letters
	AcceptableAnswers []string       `json:"acceptableAnswers,omitempty" yaml:"acceptableAnswers,omitempty"`
	Explanation       string         `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a copy that shares no slices with q. Metadata is shared; the core never writes it.
func (q Question) Clone() Question {
	c := q
	c.Options = append([]string(nil), q.Options...)
	c.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
	c.AcceptableAnswers = append([]string(nil), q.AcceptableAnswers...)
	return c
}

// OptionLetter returns the letter addressing option i (0 -> "A").
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// LetterIndex returns the option index for a letter, or -1 if the letter is not A-Z.
func LetterIndex(letter string) int {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return -1
	}
	return int(letter[0] - 'A')
}

var answerFolder = cases.Fold()

// NormalizeAnswerText trims whitespace and case-folds an answer for matching.
func NormalizeAnswerText(value string) string {
	return answerFolder.String(strings.TrimSpace(value))
}

// Answer is one recorded response. The zero value means unanswered.
type Answer struct {
	Choice  string   `json:"choice,omitempty"`  // single-choice letter
	Choices []string `json:"choices,omitempty"` // multi-select letters
	Text    string   `json:"text,omitempty"`    // fill-in-blank text
}

// ChoiceAnswer records a single-choice letter.
func ChoiceAnswer(letter string) Answer {
	return Answer{Choice: strings.ToUpper(strings.TrimSpace(letter))}
}

// ChoicesAnswer records a multi-select letter set.
func ChoicesAnswer(letters ...string) Answer {
	set := make([]string, 0, len(letters))
	seen := make(map[string]bool, len(letters))
	for _, l := range letters {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		set = append(set, l)
	}
	return Answer{Choices: set}
}

// TextAnswer records fill-in-blank text as typed.
func TextAnswer(text string) Answer {
	return Answer{Text: text}
}

// IsEmpty reports whether the answer counts as unanswered.
func (a Answer) IsEmpty() bool {
	return strings.TrimSpace(a.Choice) == "" && len(a.Choices) == 0 && strings.TrimSpace(a.Text) == ""
}

// Fits reports whether the answer shape is valid for a question kind.
// Empty answers fit every kind.
func (a Answer) Fits(k Kind) bool {
	if a.IsEmpty() {
		return true
	}
	switch k {
	case KindSingleChoice:
		return a.Choice != "" && len(a.Choices) == 0 && a.Text == ""
	case KindMultiSelect:
		return a.Choice == "" && a.Text == ""
	case KindFillInBlank:
		return a.Choice == "" && len(a.Choices) == 0
	}
	return false
}

// Display renders the answer for reports.
func (a Answer) Display() string {
	switch {
	case len(a.Choices) > 0:
		return strings.Join(a.Choices, ", ")
	case a.Choice != "":
		return a.Choice
	default:
		return a.Text
	}
}

// ExamState is the per-attempt answer and navigation state.
type ExamState struct {
	CurrentIndex int          `json:"current_index"`
	Answers      []Answer     `json:"answers"`
	Marked       map[int]bool `json:"marked,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	EndedAt      time.Time    `json:"ended_at,omitzero"`
}

// NewExamState returns a fresh state with one empty slot per question.
func NewExamState(n int, startedAt time.Time) ExamState {
	return ExamState{
		Answers:   make([]Answer, n),
		Marked:    map[int]bool{},
		StartedAt: startedAt,
	}
}

// Clone returns a deep copy of the state.
func (s ExamState) Clone() ExamState {
	c := s
	c.Answers = make([]Answer, len(s.Answers))
	for i, a := range s.Answers {
		a.Choices = append([]string(nil), a.Choices...)
		c.Answers[i] = a
	}
	c.Marked = make(map[int]bool, len(s.Marked))
	for k, v := range s.Marked {
		if v {
			c.Marked[k] = true
		}
	}
	return c
}

// AnsweredCount returns how many slots hold a non-empty answer.
func (s ExamState) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if !a.IsEmpty() {
			n++
		}
	}
	return n
}
