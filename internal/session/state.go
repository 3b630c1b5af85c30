package session

import (
	"slices"

	"github.com/pavelanni/instantquiz/internal/model"
)

// Transitions over ExamState. Each returns a new value and leaves its input untouched.

func withAnswer(s model.ExamState, i int, a model.Answer) model.ExamState {
	next := s.Clone()
	next.Answers[i] = a
	return next
}

// withToggledOption selects letter for single-choice questions and flips it for multi-select.
func withToggledOption(s model.ExamState, i int, kind model.Kind, letter string) model.ExamState {
	next := s.Clone()
	current := next.Answers[i]
	if kind == model.KindSingleChoice {
		next.Answers[i] = model.ChoiceAnswer(letter)
		return next
	}
	choices := slices.Clone(current.Choices)
	if idx := slices.Index(choices, letter); idx >= 0 {
		choices = slices.Delete(choices, idx, idx+1)
	} else {
		choices = append(choices, letter)
		slices.Sort(choices)
	}
	next.Answers[i] = model.ChoicesAnswer(choices...)
	return next
}

func withToggledMark(s model.ExamState, i int) model.ExamState {
	next := s.Clone()
	if next.Marked[i] {
		delete(next.Marked, i)
	} else {
		next.Marked[i] = true
	}
	return next
}

func withCurrent(s model.ExamState, i int) model.ExamState {
	next := s.Clone()
	next.CurrentIndex = i
	return next
}
