// Package shuffle derives a randomized exam from a question pool.
package shuffle

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/pavelanni/instantquiz/internal/model"
)

// ErrRemap is returned when a correct option cannot be located after an option shuffle.
var ErrRemap = errors.New("cannot remap correct answers after option shuffle")

// Engine derives exams using its own random source.
type Engine struct {
	rng *rand.Rand
}

// New creates an Engine. A nil rng gets a randomly seeded source.
func New(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{rng: rng}
}

// DeriveExam returns the exam question list for one attempt. The pool is not modified.
//
// Questions are shuffled (if enabled), truncated to cfg.QuestionCount, and then each
// choice question may get its options shuffled. A question whose options cannot be
// safely remapped is kept in its original order.
func (e *Engine) DeriveExam(pool []model.Question, cfg model.QuizConfig) ([]model.Question, error) {
	if cfg.QuestionCount < 1 || cfg.QuestionCount > len(pool) {
		return nil, fmt.Errorf("question count %d out of range 1-%d", cfg.QuestionCount, len(pool))
	}

	exam := make([]model.Question, len(pool))
	for i, q := range pool {
		exam[i] = q.Clone()
	}

	if cfg.ShuffleQuestions {
		e.rng.Shuffle(len(exam), func(i, j int) {
			exam[i], exam[j] = exam[j], exam[i]
		})
	}
	exam = exam[:cfg.QuestionCount]

	if cfg.ShuffleOptions {
		for i, q := range exam {
			if !q.Kind.IsChoice() {
				continue
			}
			shuffled, err := ShuffleOptions(q, e.rng)
			if err != nil {
				slog.Warn("keeping original option order", "question_id", q.ID, "error", err)
				continue
			}
			exam[i] = shuffled
		}
	}
	return exam, nil
}

// ShuffleOptions permutes the options of a choice question and remaps its correct
// letters by option value. It returns ErrRemap if any correct option value does not
// appear exactly once after the shuffle.
func ShuffleOptions(q model.Question, rng *rand.Rand) (model.Question, error) {
	if !q.Kind.IsChoice() {
		return q, nil
	}
	n := len(q.Options)
	shuffled := make([]string, n)
	for newIdx, oldIdx := range rng.Perm(n) {
		shuffled[newIdx] = q.Options[oldIdx]
	}

	correct := make([]string, 0, len(q.CorrectAnswers))
	for _, letter := range q.CorrectAnswers {
		oldIdx := model.LetterIndex(letter)
		if oldIdx < 0 || oldIdx >= n {
			return q, fmt.Errorf("%w: letter %q has no option", ErrRemap, letter)
		}
		newIdx := uniqueIndex(shuffled, q.Options[oldIdx])
		if newIdx < 0 {
			return q, fmt.Errorf("%w: option %q is not unique", ErrRemap, q.Options[oldIdx])
		}
		correct = append(correct, model.OptionLetter(newIdx))
	}
	slices.Sort(correct)

	out := q.Clone()
	out.Options = shuffled
	out.CorrectAnswers = correct
	return out, nil
}

// uniqueIndex returns the index of value in values, or -1 unless it occurs exactly once.
func uniqueIndex(values []string, value string) int {
	found := -1
	for i, v := range values {
		if v != value {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}
	return found
}
