package tasks

import (
	"fmt"

	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
)

// Mode selects the operation set computed by [Diff].
type Mode string

const (
	ModeAdd     Mode = "add"     // add desired tracks that are missing
	ModeDelete  Mode = "del"     // remove desired tracks that are present
	ModeReplace Mode = "replace" // converge to exactly the desired tracks
)

// ParseMode maps a command word to its [Mode].
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAdd, ModeDelete, ModeReplace:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", shared.ErrInvalidArgument, s)
}

func (m Mode) String() string { return string(m) }

// EffectiveMode escalates an add against an existing playlist to replace when forceReplace is set.
func EffectiveMode(requested Mode, exists, forceReplace bool) Mode {
	if requested == ModeAdd && exists && forceReplace {
		return ModeReplace
	}
	return requested
}

// Plan is the set of mutations that converges one playlist.
//
// Add holds track ids in desired order. Remove holds membership ids, the handles the remote
// service requires for removal; RemoveTrackIDs holds the track ids behind them.
type Plan struct {
	Mode           Mode
	Add            []int64
	Remove         []string
	RemoveTrackIDs []int64
}

// Empty reports whether the plan has nothing to apply.
func (p Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0
}

// Diff computes the plan for mode between the desired track ids and the observed playlist tracks.
//
// Desired ids repeated in the list are considered once. Add and Remove never share a track id.
func Diff(mode Mode, desired []int64, observed []models.Track) Plan {
	plan := Plan{Mode: mode}

	present := make(map[int64][]string, len(observed))
	for _, t := range observed {
		present[t.ID] = append(present[t.ID], t.PlaylistTrackID)
	}

	wanted := make(map[int64]bool, len(desired))
	for _, id := range desired {
		if wanted[id] {
			continue
		}
		wanted[id] = true

		_, ok := present[id]
		switch mode {
		case ModeAdd, ModeReplace:
			if !ok {
				plan.Add = append(plan.Add, id)
			}
		case ModeDelete:
			if ok {
				plan.Remove = append(plan.Remove, present[id]...)
				plan.RemoveTrackIDs = append(plan.RemoveTrackIDs, id)
			}
		}
	}

	if mode == ModeReplace {
		for _, t := range observed {
			if !wanted[t.ID] {
				plan.Remove = append(plan.Remove, t.PlaylistTrackID)
				plan.RemoveTrackIDs = append(plan.RemoveTrackIDs, t.ID)
			}
		}
	}

	return plan
}
