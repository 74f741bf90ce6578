package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/interfaces"
	"github.com/ternarybob/hubcheck/internal/models"
)

// RunStorage implements interfaces.RunStorage on badgerhold
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RunStorage) SaveRun(ctx context.Context, summary *models.RunSummary) error {
	if summary.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := s.db.Store().Upsert(summary.RunID, summary); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	passed, failed, skipped := summary.Counts()
	s.logger.Debug().
		Str("run_id", summary.RunID).
		Int("passed", passed).
		Int("failed", failed).
		Int("skipped", skipped).
		Msg("Run stored")
	return nil
}

func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.RunSummary, error) {
	var runs []models.RunSummary
	if err := s.db.Store().Find(&runs, nil); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.RunSummary, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.After(result[j].StartedAt) })

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
