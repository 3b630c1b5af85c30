package store

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/pavelanni/instantquiz/internal/model"
)

// SetPoolSetting upserts a key-value pair for a pool.
func (s *Store) SetPoolSetting(poolID int64, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO pool_settings (pool_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(pool_id, key) DO UPDATE SET value = ?`,
		poolID, key, value, value,
	)
	return err
}

// PoolSetting returns the value for a pool setting.
// Returns empty string and nil error if the key is missing.
func (s *Store) PoolSetting(poolID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM pool_settings WHERE pool_id = ? AND key = ?`, poolID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SaveConfig remembers the last configuration used with a pool.
func (s *Store) SaveConfig(poolID int64, cfg model.QuizConfig) error {
	pairs := []struct{ k, v string }{
		{"question_count", strconv.Itoa(cfg.QuestionCount)},
		{"timer_enabled", strconv.FormatBool(cfg.TimerEnabled)},
		{"timer_minutes", strconv.Itoa(cfg.TimerMinutes)},
		{"passing_score", strconv.Itoa(cfg.PassingScore)},
		{"shuffle_questions", strconv.FormatBool(cfg.ShuffleQuestions)},
		{"shuffle_options", strconv.FormatBool(cfg.ShuffleOptions)},
	}
	for _, p := range pairs {
		if err := s.SetPoolSetting(poolID, p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig returns the last configuration saved for a pool. ok is false if none was saved.
func (s *Store) LoadConfig(poolID int64) (cfg model.QuizConfig, ok bool, err error) {
	ints := []struct {
		k   string
		dst *int
	}{
		{"question_count", &cfg.QuestionCount},
		{"timer_minutes", &cfg.TimerMinutes},
		{"passing_score", &cfg.PassingScore},
	}
	bools := []struct {
		k   string
		dst *bool
	}{
		{"timer_enabled", &cfg.TimerEnabled},
		{"shuffle_questions", &cfg.ShuffleQuestions},
		{"shuffle_options", &cfg.ShuffleOptions},
	}

	for _, f := range ints {
		v, err := s.PoolSetting(poolID, f.k)
		if err != nil {
			return cfg, false, err
		}
		if v == "" {
			return model.QuizConfig{}, false, nil
		}
		if *f.dst, err = strconv.Atoi(v); err != nil {
			return cfg, false, err
		}
	}
	for _, f := range bools {
		v, err := s.PoolSetting(poolID, f.k)
		if err != nil {
			return cfg, false, err
		}
		if *f.dst, err = strconv.ParseBool(v); err != nil {
			return cfg, false, err
		}
	}
	return cfg, true, nil
}
