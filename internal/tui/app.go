package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pavelanni/instantquiz/internal/model"
	"github.com/pavelanni/instantquiz/internal/parser"
	"github.com/pavelanni/instantquiz/internal/session"
	"github.com/pavelanni/instantquiz/internal/store"
)

// App holds the dependencies shared by every screen.
type App struct {
	store    *store.Store
	session  *session.Session
	defaults model.QuizConfig

	mu     sync.Mutex
	poolID int64
	last   model.AttemptSummary
}

// NewApp creates an App. defaults seeds the configuration offered for every new pool;
// a zero QuestionCount means the whole pool.
func NewApp(st *store.Store, defaults model.QuizConfig, opts ...session.Option) *App {
	a := &App{store: st, defaults: defaults}
	opts = append(opts, session.WithOnSubmit(a.recordAttempt))
	a.session = session.New(opts...)
	return a
}

// Session returns the underlying quiz session.
func (a *App) Session() *session.Session {
	return a.session
}

// Load reads, parses and records a question file, then loads it into the session.
// It returns the configuration to offer for the pool.
func (a *App) Load(path string) (model.QuizConfig, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.QuizConfig{}, 0, fmt.Errorf("read %s: %w", path, err)
	}
	format := parser.DetectFormat(path, data)
	questions, err := parser.Parse(data, format)
	if err != nil {
		return model.QuizConfig{}, 0, err
	}

	pool, created, err := a.store.SavePool(filepath.Base(path), string(format), data, questions)
	if err != nil {
		return model.QuizConfig{}, 0, fmt.Errorf("save pool: %w", err)
	}
	if !created {
		slog.Info("question file already loaded, reusing pool", "path", path, "pool_id", pool.ID)
		if questions, err = a.store.PoolQuestions(pool.ID); err != nil {
			return model.QuizConfig{}, 0, fmt.Errorf("reload pool: %w", err)
		}
	}
	if err := a.session.LoadQuestions(questions); err != nil {
		return model.QuizConfig{}, 0, err
	}

	a.mu.Lock()
	a.poolID = pool.ID
	a.last = model.AttemptSummary{}
	a.mu.Unlock()
	slog.Info("loaded questions", "path", path, "format", format, "count", len(questions))

	return a.configFor(pool.ID, len(questions)), len(questions), nil
}

// configFor returns the saved configuration for a pool, or the defaults fitted to its size.
func (a *App) configFor(poolID int64, total int) model.QuizConfig {
	if saved, ok, err := a.store.LoadConfig(poolID); err != nil {
		slog.Warn("could not load saved configuration", "pool_id", poolID, "error", err)
	} else if ok && saved.Validate(total) == nil {
		return saved
	}

	cfg := a.defaults
	if cfg.QuestionCount <= 0 || cfg.QuestionCount > total {
		cfg.QuestionCount = total
	}
	if cfg.TimerMinutes == 0 {
		cfg.TimerMinutes = model.DefaultTimer
	}
	return cfg
}

// Start validates cfg, remembers it for the pool and starts the exam.
func (a *App) Start(cfg model.QuizConfig) error {
	if err := a.session.StartQuiz(cfg); err != nil {
		return err
	}
	if err := a.store.SaveConfig(a.currentPool(), cfg); err != nil {
		slog.Warn("could not save configuration", "error", err)
	}
	return nil
}

// recordAttempt stores a submitted report. It runs on the submitting goroutine.
func (a *App) recordAttempt(report model.ResultsReport) {
	poolID := a.currentPool()
	summary, err := a.store.RecordAttempt(poolID, report)
	if err != nil {
		slog.Error("record attempt failed", "pool_id", poolID, "error", err)
		return
	}
	a.mu.Lock()
	a.last = summary
	a.mu.Unlock()
	slog.Info("attempt submitted", "pool_id", poolID, "attempt", summary.Number, "score", report.Score, "passed", report.Passed)
}

// LastAttempt returns the most recent attempt and the best score on the current pool.
func (a *App) LastAttempt() (summary model.AttemptSummary, best int, ok bool) {
	a.mu.Lock()
	summary = a.last
	a.mu.Unlock()
	if summary.Number == 0 {
		return summary, 0, false
	}
	best, ok, err := a.store.BestScore(summary.PoolID)
	if err != nil {
		slog.Warn("could not read best score", "error", err)
		return summary, summary.Score, true
	}
	return summary, best, ok
}

// Export returns every attempt on the current pool. ok is false when nothing was loaded.
func (a *App) Export() (export model.AttemptsExport, ok bool, err error) {
	poolID := a.currentPool()
	if poolID == 0 {
		return model.AttemptsExport{}, false, nil
	}
	export, err = a.store.ExportAttempts(poolID)
	return export, err == nil, err
}

func (a *App) currentPool() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.poolID
}

// FirstError returns the message shown to the user for a load failure:
// the first collected issue for validation errors, the error text otherwise.
func FirstError(err error) string {
	var verr *parser.ValidationError
	if errors.As(err, &verr) && len(verr.Issues) > 0 {
		return verr.First().String()
	}
	return err.Error()
}
