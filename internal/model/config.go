package model

import (
	"fmt"
	"strings"
)

// Configuration bounds.
const (
	MinTimerMinutes  = 1
	MaxTimerMinutes  = 999
	DefaultTimer     = 30
	DefaultPassScore = 70
)

// QuizConfig holds the exam parameters chosen before a start. It is frozen for one attempt.
type QuizConfig struct {
	QuestionCount    int  `json:"question_count" mapstructure:"question-count"`
	TimerEnabled     bool `json:"timer_enabled" mapstructure:"timer"`
	TimerMinutes     int  `json:"timer_minutes" mapstructure:"timer-minutes"`
	PassingScore     int  `json:"passing_score" mapstructure:"passing-score"`
	ShuffleQuestions bool `json:"shuffle_questions" mapstructure:"shuffle-questions"`
	ShuffleOptions   bool `json:"shuffle_options" mapstructure:"shuffle-options"`
}

// DefaultConfig returns the configuration offered after loading a pool of total questions.
func DefaultConfig(total int) QuizConfig {
	return QuizConfig{
		QuestionCount: total,
		TimerMinutes:  DefaultTimer,
		PassingScore:  DefaultPassScore,
	}
}

// ConfigIssue is one invalid configuration field.
type ConfigIssue struct {
	Field   string
	Message string
}

// ConfigError reports every invalid field of a QuizConfig.
type ConfigError struct {
	Issues []ConfigIssue
}

func (err *ConfigError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return "invalid quiz configuration: " + strings.Join(parts, "; ")
}

// Validate checks the configuration against a pool of total questions.
func (c QuizConfig) Validate(total int) error {
	var issues []ConfigIssue
	if c.QuestionCount < 1 || c.QuestionCount > total {
		issues = append(issues, ConfigIssue{
			Field:   "question_count",
			Message: fmt.Sprintf("must be between 1 and %d", total),
		})
	}
	if c.TimerEnabled && (c.TimerMinutes < MinTimerMinutes || c.TimerMinutes > MaxTimerMinutes) {
		issues = append(issues, ConfigIssue{
			Field:   "timer_minutes",
			Message: fmt.Sprintf("must be between %d and %d", MinTimerMinutes, MaxTimerMinutes),
		})
	}
	if c.PassingScore < 0 || c.PassingScore > 100 {
		issues = append(issues, ConfigIssue{Field: "passing_score", Message: "must be between 0 and 100"})
	}
	if len(issues) > 0 {
		return &ConfigError{Issues: issues}
	}
	return nil
}
