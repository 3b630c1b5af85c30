package model

import "time"

// ResultStatus classifies one scored question.
type ResultStatus string

const (
	StatusCorrect    ResultStatus = "correct"
	StatusIncorrect  ResultStatus = "incorrect"
	StatusUnanswered ResultStatus = "unanswered"
)

// ResultFilter selects a subset of question results for review.
type ResultFilter string

const (
	FilterAll       ResultFilter = "all"
	FilterCorrect   ResultFilter = "correct"
	FilterIncorrect ResultFilter = "incorrect"
	FilterMarked    ResultFilter = "marked"
)

// ResultFilters lists the filters in display order.
var ResultFilters = []ResultFilter{FilterAll, FilterCorrect, FilterIncorrect, FilterMarked}

// QuestionResult is the per-question breakdown of a scored attempt.
type QuestionResult struct {
	Index             int            `json:"index"`
	ID                string         `json:"id"`
	Text              string         `json:"question"`
	Kind              Kind           `json:"type"`
	Options           []string       `json:"options,omitempty"`
	UserAnswer        Answer         `json:"user_answer"`
	CorrectAnswers    []string       `json:"correct_answers,omitempty"`
	AcceptableAnswers []string       `json:"acceptable_answers,omitempty"`
	Status            ResultStatus   `json:"status"`
	IsCorrect         bool           `json:"is_correct"`
	PartialCredit     float64        `json:"partial_credit"`
	MarkedForReview   bool           `json:"marked_for_review"`
	Explanation       string         `json:"explanation,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// ResultsReport is the immutable outcome of one submitted attempt.
type ResultsReport struct {
	Score           int              `json:"score"`
	TotalQuestions  int              `json:"total_questions"`
	CorrectCount    int              `json:"correct_count"`
	IncorrectCount  int              `json:"incorrect_count"`
	UnansweredCount int              `json:"unanswered_count"`
	Passed          bool             `json:"passed"`
	PassingScore    int              `json:"passing_score"`
	TimeSpent       *int             `json:"time_spent,omitempty"` // seconds, timed exams only
	TimeLimit       *int             `json:"time_limit,omitempty"` // seconds, timed exams only
	StartedAt       time.Time        `json:"started_at"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	Questions       []QuestionResult `json:"questions"`
}

// Filter returns the question results matching f. Unknown filters behave like FilterAll.
func (r ResultsReport) Filter(f ResultFilter) []QuestionResult {
	out := make([]QuestionResult, 0, len(r.Questions))
	for _, q := range r.Questions {
		switch f {
		case FilterCorrect:
			if q.Status != StatusCorrect {
				continue
			}
		case FilterIncorrect:
			if q.Status != StatusIncorrect {
				continue
			}
		case FilterMarked:
			if !q.MarkedForReview {
				continue
			}
		}
		out = append(out, q)
	}
	return out
}

// AttemptSummary is one recorded attempt in the in-memory history.
type AttemptSummary struct {
	ID          int64     `json:"id"`
	PoolID      int64     `json:"pool_id"`
	Number      int       `json:"number"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AttemptsExport is the JSON document written by the report flag.
type AttemptsExport struct {
	Source   string          `json:"source"`
	Format   string          `json:"format"`
	Attempts []ResultsReport `json:"attempts"`
}
