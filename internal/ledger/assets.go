package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Asset is one recorded conversion outcome.
type Asset struct {
	RunID        string
	Destination  string
	Source       string
	Archive      string
	Outcome      string
	ErrorMessage string
	RecordedAt   time.Time
}

// AssetCounts returns the number of distinct destinations per latest outcome.
// Only the most recent record for each destination is counted.
func (s *Store) AssetCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT a.outcome, COUNT(1)
        FROM assets a
        JOIN (SELECT destination, MAX(id) AS id FROM assets GROUP BY destination) latest
          ON latest.id = a.id
        GROUP BY a.outcome`)
	if err != nil {
		return nil, fmt.Errorf("count assets: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			outcome string
			count   int
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan asset count: %w", err)
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}

// RunAssets lists the assets recorded for a run in insertion order. An empty
// outcome returns every asset.
func (s *Store) RunAssets(ctx context.Context, runID, outcome string) ([]Asset, error) {
	query := `SELECT run_id, destination, source, archive, outcome, error_message, recorded_at
        FROM assets WHERE run_id = ?`
	args := []any{runID}
	if outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, outcome)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var (
			asset       Asset
			message     sql.NullString
			recordedRaw sql.NullString
		)
		if err := rows.Scan(&asset.RunID, &asset.Destination, &asset.Source, &asset.Archive,
			&asset.Outcome, &message, &recordedRaw); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		asset.ErrorMessage = message.String
		asset.RecordedAt = parseTime(recordedRaw)
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}
