// Package scoring turns a submitted exam into a ResultsReport.
package scoring

import (
	"math"
	"time"

	"github.com/pavelanni/instantquiz/internal/model"
)

// Evaluation is the outcome of checking one answer.
type Evaluation struct {
	Correct bool
	// Partial is the multi-select credit ratio in [0, 1]. It never affects Correct.
	Partial float64
}

// Evaluator checks one non-empty answer against a question.
type Evaluator interface {
	Evaluate(q model.Question, a model.Answer) Evaluation
}

var evaluators = map[model.Kind]Evaluator{
	model.KindSingleChoice: singleChoice{},
	model.KindMultiSelect:  multiSelect{},
	model.KindFillInBlank:  fillInBlank{},
}

// Evaluate checks a single answer. Empty answers and unknown kinds evaluate as incorrect.
func Evaluate(q model.Question, a model.Answer) Evaluation {
	e, ok := evaluators[q.Kind]
	if !ok || a.IsEmpty() {
		return Evaluation{}
	}
	return e.Evaluate(q, a)
}

// Score grades every exam question against the recorded state.
// It has no side effects; submittedAt is taken from state.EndedAt when set.
func Score(exam []model.Question, state model.ExamState, cfg model.QuizConfig, submittedAt time.Time) model.ResultsReport {
	if !state.EndedAt.IsZero() {
		submittedAt = state.EndedAt
	}
	report := model.ResultsReport{
		TotalQuestions: len(exam),
		PassingScore:   cfg.PassingScore,
		StartedAt:      state.StartedAt,
		SubmittedAt:    submittedAt,
		Questions:      make([]model.QuestionResult, 0, len(exam)),
	}

	for i, q := range exam {
		var answer model.Answer
		if i < len(state.Answers) {
			answer = state.Answers[i]
		}
		result := model.QuestionResult{
			Index:             i,
			ID:                q.ID,
			Text:              q.Text,
			Kind:              q.Kind,
			Options:           q.Options,
			UserAnswer:        answer,
			CorrectAnswers:    q.CorrectAnswers,
			AcceptableAnswers: q.AcceptableAnswers,
			MarkedForReview:   state.Marked[i],
			Explanation:       q.Explanation,
			Metadata:          q.Metadata,
		}

		switch eval := Evaluate(q, answer); {
		case answer.IsEmpty():
			result.Status = model.StatusUnanswered
			report.UnansweredCount++
		case eval.Correct:
			result.Status = model.StatusCorrect
			result.IsCorrect = true
			result.PartialCredit = eval.Partial
			report.CorrectCount++
		default:
			result.Status = model.StatusIncorrect
			result.PartialCredit = eval.Partial
			report.IncorrectCount++
		}
		report.Questions = append(report.Questions, result)
	}

	if report.TotalQuestions > 0 {
		report.Score = int(math.Round(float64(report.CorrectCount) / float64(report.TotalQuestions) * 100))
	}
	report.Passed = report.Score >= cfg.PassingScore

	if cfg.TimerEnabled {
		limit := cfg.TimerMinutes * 60
		spent := min(int(submittedAt.Sub(state.StartedAt)/time.Second), limit)
		report.TimeSpent = &spent
		report.TimeLimit = &limit
	}
	return report
}

type singleChoice struct{}

func (singleChoice) Evaluate(q model.Question, a model.Answer) Evaluation {
	if len(q.CorrectAnswers) != 1 {
		return Evaluation{}
	}
	if model.ChoiceAnswer(a.Choice).Choice == q.CorrectAnswers[0] {
		return Evaluation{Correct: true, Partial: 1}
	}
	return Evaluation{}
}

type multiSelect struct{}

func (multiSelect) Evaluate(q model.Question, a model.Answer) Evaluation {
	correct := toSet(q.CorrectAnswers)
	chosen := toSet(model.ChoicesAnswer(a.Choices...).Choices)
	if len(correct) == 0 {
		return Evaluation{}
	}

	hits, misses := 0, 0
	for c := range chosen {
		if correct[c] {
			hits++
		} else {
			misses++
		}
	}
	partial := math.Max(0, float64(hits-misses)/float64(len(correct)))
	return Evaluation{Correct: setEqual(correct, chosen), Partial: partial}
}

type fillInBlank struct{}

func (fillInBlank) Evaluate(q model.Question, a model.Answer) Evaluation {
	got := model.NormalizeAnswerText(a.Text)
	for _, accepted := range q.AcceptableAnswers {
		if model.NormalizeAnswerText(accepted) == got {
			return Evaluation{Correct: true, Partial: 1}
		}
	}
	return Evaluation{}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func setEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
