package store

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/pavelanni/instantquiz/internal/model"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database that disappears with the process.
const MemoryDSN = ":memory:"

// ErrPoolNotFound is returned for an unknown pool id.
var ErrPoolNotFound = errors.New("question pool not found")

type Store struct {
	db *sql.DB
}

func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pools (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		format TEXT NOT NULL,
		question_count INTEGER NOT NULL,
		loaded_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pool_questions (
		pool_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		body TEXT NOT NULL,
		PRIMARY KEY (pool_id, position),
		FOREIGN KEY (pool_id) REFERENCES pools(id)
	);

	CREATE TABLE IF NOT EXISTS pool_settings (
		pool_id INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (pool_id, key),
		FOREIGN KEY (pool_id) REFERENCES pools(id)
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pool_id INTEGER NOT NULL,
		number INTEGER NOT NULL,
		score INTEGER NOT NULL,
		passed BOOLEAN NOT NULL,
		submitted_at DATETIME NOT NULL,
		report TEXT NOT NULL,
		FOREIGN KEY (pool_id) REFERENCES pools(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Fingerprint returns a content hash of a question file.
func Fingerprint(data []byte) string {
	h := blake2b.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Pool describes an imported question file.
type Pool struct {
	ID            int64
	Fingerprint   string
	Source        string
	Format        string
	QuestionCount int
	LoadedAt      time.Time
}

// SavePool records a parsed question file. Loading identical content again returns
// the existing pool with created == false.
func (s *Store) SavePool(source, format string, data []byte, questions []model.Question) (pool Pool, created bool, err error) {
	fp := Fingerprint(data)
	existing, err := s.poolByFingerprint(fp)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrPoolNotFound) {
		return Pool{}, false, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Pool{}, false, err
	}
	defer tx.Rollback()

	pool = Pool{
		Fingerprint:   fp,
		Source:        source,
		Format:        format,
		QuestionCount: len(questions),
		LoadedAt:      time.Now(),
	}
	res, err := tx.Exec(
		`INSERT INTO pools (fingerprint, source, format, question_count, loaded_at) VALUES (?, ?, ?, ?, ?)`,
		pool.Fingerprint, pool.Source, pool.Format, pool.QuestionCount, pool.LoadedAt,
	)
	if err != nil {
		return Pool{}, false, err
	}
	if pool.ID, err = res.LastInsertId(); err != nil {
		return Pool{}, false, err
	}

	for i, q := range questions {
		body, err := json.Marshal(q)
		if err != nil {
			return Pool{}, false, fmt.Errorf("encode question %d: %w", i+1, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO pool_questions (pool_id, position, body) VALUES (?, ?, ?)`,
			pool.ID, i, string(body),
		); err != nil {
			return Pool{}, false, err
		}
	}
	return pool, true, tx.Commit()
}

func (s *Store) poolByFingerprint(fp string) (Pool, error) {
	return s.scanPool(s.db.QueryRow(
		`SELECT id, fingerprint, source, format, question_count, loaded_at FROM pools WHERE fingerprint = ?`, fp,
	))
}

// GetPool returns a pool by id.
func (s *Store) GetPool(id int64) (Pool, error) {
	return s.scanPool(s.db.QueryRow(
		`SELECT id, fingerprint, source, format, question_count, loaded_at FROM pools WHERE id = ?`, id,
	))
}

func (s *Store) scanPool(row *sql.Row) (Pool, error) {
	var p Pool
	err := row.Scan(&p.ID, &p.Fingerprint, &p.Source, &p.Format, &p.QuestionCount, &p.LoadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Pool{}, ErrPoolNotFound
	}
	return p, err
}

// PoolQuestions returns the questions of a pool in file order.
func (s *Store) PoolQuestions(poolID int64) ([]model.Question, error) {
	if _, err := s.GetPool(poolID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT body FROM pool_questions WHERE pool_id = ? ORDER BY position`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var q model.Question
		if err := json.Unmarshal([]byte(body), &q); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// RecordAttempt stores a submitted report and numbers it within its pool.
func (s *Store) RecordAttempt(poolID int64, report model.ResultsReport) (model.AttemptSummary, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return model.AttemptSummary{}, fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return model.AttemptSummary{}, err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM attempts WHERE pool_id = ?`, poolID).Scan(&count); err != nil {
		return model.AttemptSummary{}, err
	}
	summary := model.AttemptSummary{
		PoolID:      poolID,
		Number:      count + 1,
		Score:       report.Score,
		Passed:      report.Passed,
		SubmittedAt: report.SubmittedAt,
	}
	res, err := tx.Exec(
		`INSERT INTO attempts (pool_id, number, score, passed, submitted_at, report) VALUES (?, ?, ?, ?, ?, ?)`,
		summary.PoolID, summary.Number, summary.Score, summary.Passed, summary.SubmittedAt, string(body),
	)
	if err != nil {
		return model.AttemptSummary{}, err
	}
	if summary.ID, err = res.LastInsertId(); err != nil {
		return model.AttemptSummary{}, err
	}
	return summary, tx.Commit()
}

// ListAttempts returns the attempts of a pool, oldest first.
func (s *Store) ListAttempts(poolID int64) ([]model.AttemptSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, pool_id, number, score, passed, submitted_at FROM attempts WHERE pool_id = ? ORDER BY number`, poolID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.AttemptSummary
	for rows.Next() {
		var a model.AttemptSummary
		if err := rows.Scan(&a.ID, &a.PoolID, &a.Number, &a.Score, &a.Passed, &a.SubmittedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// BestScore returns the highest score recorded for a pool. ok is false when there are no attempts.
func (s *Store) BestScore(poolID int64) (best int, ok bool, err error) {
	var score sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(score) FROM attempts WHERE pool_id = ?`, poolID).Scan(&score); err != nil {
		return 0, false, err
	}
	return int(score.Int64), score.Valid, nil
}

// attemptReports returns the full reports of a pool, oldest first.
func (s *Store) attemptReports(poolID int64) ([]model.ResultsReport, error) {
	rows, err := s.db.Query(`SELECT report FROM attempts WHERE pool_id = ? ORDER BY number`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []model.ResultsReport
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var r model.ResultsReport
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
