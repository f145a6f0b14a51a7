package models

import (
	"fmt"
	"time"
)

// RunKind distinguishes playlist runs from favorites runs.
type RunKind string

const (
	RunPlaylists RunKind = "playlists"
	RunFavorites RunKind = "favorites"
)

// Run is the persisted summary of one reconciliation run.
type Run struct {
	id       string
	sequence int

	Kind       RunKind
	Mode       string
	Source     string
	Issues     int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []RunResult
}

// RunResult is the outcome of one unit of work inside a run: a playlist, or a favorites category.
type RunResult struct {
	ID         string
	Name       string
	PlaylistID string
	Created    bool
	Mode       string
	Added      int
	Removed    int
	Error      string
}

// NewRun creates a [Run] started at startedAt.
func NewRun(kind RunKind, mode, source string, startedAt time.Time) *Run {
	return &Run{Kind: kind, Mode: mode, Source: source, StartedAt: startedAt, FinishedAt: startedAt}
}

func (r *Run) ID() string { return r.id }

func (r *Run) SetID(id string) { r.id = id }

func (r *Run) Sequence() int { return r.sequence }

func (r *Run) SetSequence(seq int) { r.sequence = seq }

func (r *Run) CreatedAt() time.Time { return r.StartedAt }

func (r *Run) UpdatedAt() time.Time { return r.FinishedAt }

func (r *Run) Elapsed() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Failed reports whether the run or any of its results recorded an error.
func (r *Run) Failed() bool {
	if r.Error != "" {
		return true
	}
	for _, res := range r.Results {
		if res.Error != "" {
			return true
		}
	}
	return false
}

// Validate checks the run before persistence.
func (r *Run) Validate() error {
	switch r.Kind {
	case RunPlaylists, RunFavorites:
	default:
		return fmt.Errorf("invalid run kind %q", r.Kind)
	}
	if r.Mode == "" {
		return fmt.Errorf("run mode is required")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("run start time is required")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("run finished before it started")
	}
	return nil
}

var _ Model = (*Run)(nil)
