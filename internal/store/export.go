package store

import (
	"fmt"

	"github.com/pavelanni/instantquiz/internal/model"
)

// ExportAttempts builds the export document for every attempt on a pool.
func (s *Store) ExportAttempts(poolID int64) (model.AttemptsExport, error) {
	pool, err := s.GetPool(poolID)
	if err != nil {
		return model.AttemptsExport{}, fmt.Errorf("get pool %d: %w", poolID, err)
	}

	reports, err := s.attemptReports(poolID)
	if err != nil {
		return model.AttemptsExport{}, fmt.Errorf("list attempts for pool %d: %w", poolID, err)
	}
	if reports == nil {
		reports = []model.ResultsReport{}
	}

	return model.AttemptsExport{
		Source:   pool.Source,
		Format:   pool.Format,
		Attempts: reports,
	}, nil
}
