package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunRepository implements models.Repository[*models.Run] for reconciliation history.
//
// A run and its results are written in one transaction. Runs are never updated.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run and its results with a generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "runs")
	if err != nil {
		return err
	}

	id := shared.GenerateID()
	_, err = tx.Exec(`
		INSERT INTO runs (id, sequence, kind, mode, source, issues, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		sequence,
		string(run.Kind),
		run.Mode,
		run.Source,
		run.Issues,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	results := make([]models.RunResult, len(run.Results))
	for i, res := range run.Results {
		res.ID = shared.GenerateID()
		_, err := tx.Exec(`
			INSERT INTO run_results (id, run_id, position, name, playlist_id, created, mode, added, removed, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, res.ID, id, i, res.Name, res.PlaylistID, res.Created, res.Mode, res.Added, res.Removed, res.Error)
		if err != nil {
			return fmt.Errorf("failed to insert run result %q: %w", res.Name, err)
		}
		results[i] = res
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	run.Results = results
	return nil
}

// Get retrieves a run and its results by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	row := r.db.QueryRow(`
		SELECT id, sequence, kind, mode, source, issues, error, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if run.Results, err = r.results(run.ID()); err != nil {
		return nil, err
	}
	return run, nil
}

// Delete removes a run and its results
func (r *RunRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM run_results WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run results: %w", err)
	}

	result, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return tx.Commit()
}

// List retrieves runs newest first.
//
// Supported criteria: "kind" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `
		SELECT id, sequence, kind, mode, source, issues, error, started_at, finished_at
		FROM runs
		WHERE 1 = 1
	`

	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	// Results are loaded after the cursor is closed; in-memory databases hold a single connection.
	for _, run := range runs {
		if run.Results, err = r.results(run.ID()); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

func (r *RunRepository) results(runID string) ([]models.RunResult, error) {
	rows, err := r.db.Query(`
		SELECT id, name, playlist_id, created, mode, added, removed, error
		FROM run_results
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer rows.Close()

	var results []models.RunResult
	for rows.Next() {
		var res models.RunResult
		if err := rows.Scan(&res.ID, &res.Name, &res.PlaylistID, &res.Created, &res.Mode, &res.Added, &res.Removed, &res.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a runs row from either [sql.Row] or [sql.Rows]
func scanRun(s scanner) (*models.Run, error) {
	var (
		id         string
		sequence   int
		kind       string
		mode       string
		source     string
		issues     int
		errorText  string
		startedAt  time.Time
		finishedAt time.Time
	)

	err := s.Scan(&id, &sequence, &kind, &mode, &source, &issues, &errorText, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewRun(models.RunKind(kind), mode, source, startedAt)
	run.SetID(id)
	run.SetSequence(sequence)
	run.Issues = issues
	run.Error = errorText
	run.FinishedAt = finishedAt
	return run, nil
}

var _ models.Repository[*models.Run] = (*RunRepository)(nil)
