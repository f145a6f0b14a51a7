package tasks

import (
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/qbx/internal/models"
	"github.com/desertthunder/qbx/internal/shared"
)

func observed(pairs ...any) []models.Track {
	var tracks []models.Track
	for i := 0; i+1 < len(pairs); i += 2 {
		tracks = append(tracks, models.Track{ID: int64(pairs[i].(int)), PlaylistTrackID: pairs[i+1].(string)})
	}
	return tracks
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"add", "del", "replace"} {
		m, err := ParseMode(s)
		if err != nil {
			t.Fatalf("ParseMode(%q) failed: %v", s, err)
		}
		if m.String() != s {
			t.Errorf("expected %q, got %q", s, m)
		}
	}

	if _, err := ParseMode("merge"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name      string
		requested Mode
		exists    bool
		force     bool
		want      Mode
	}{
		{"add existing forced", ModeAdd, true, true, ModeReplace},
		{"add existing", ModeAdd, true, false, ModeAdd},
		{"add new forced", ModeAdd, false, true, ModeAdd},
		{"delete forced", ModeDelete, true, true, ModeDelete},
		{"replace", ModeReplace, true, false, ModeReplace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveMode(tt.requested, tt.exists, tt.force); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	t.Run("add skips present tracks in desired order", func(t *testing.T) {
		plan := Diff(ModeAdd, []int64{9, 1, 5, 3}, observed(5, "a", 7, "b"))

		if !slices.Equal(plan.Add, []int64{9, 1, 3}) {
			t.Errorf("unexpected add set %v", plan.Add)
		}
		if len(plan.Remove) != 0 {
			t.Errorf("add mode must not remove, got %v", plan.Remove)
		}
	})

	t.Run("add is idempotent once applied", func(t *testing.T) {
		desired := []int64{1, 2, 3}
		current := observed(2, "a")

		first := Diff(ModeAdd, desired, current)
		for i, id := range first.Add {
			current = append(current, models.Track{ID: id, PlaylistTrackID: string(rune('x' + i))})
		}

		second := Diff(ModeAdd, desired, current)
		if !second.Empty() {
			t.Errorf("expected empty plan on second run, got %+v", second)
		}
	})

	t.Run("delete maps to membership ids", func(t *testing.T) {
		plan := Diff(ModeDelete, []int64{5, 6, 7}, observed(5, "a", 6, "b"))

		if !slices.Equal(plan.Remove, []string{"a", "b"}) {
			t.Errorf("expected membership ids [a b], got %v", plan.Remove)
		}
		if !slices.Equal(plan.RemoveTrackIDs, []int64{5, 6}) {
			t.Errorf("expected track ids [5 6], got %v", plan.RemoveTrackIDs)
		}
		if len(plan.Add) != 0 {
			t.Errorf("delete mode must not add, got %v", plan.Add)
		}
	})

	t.Run("replace converges with disjoint sets", func(t *testing.T) {
		plan := Diff(ModeReplace, []int64{1, 2, 3}, observed(2, "m2", 3, "m3", 4, "m4"))

		if !slices.Equal(plan.Add, []int64{1}) {
			t.Errorf("expected add [1], got %v", plan.Add)
		}
		if !slices.Equal(plan.RemoveTrackIDs, []int64{4}) || !slices.Equal(plan.Remove, []string{"m4"}) {
			t.Errorf("expected remove 4/m4, got %v/%v", plan.RemoveTrackIDs, plan.Remove)
		}
	})

	t.Run("replace sets never intersect", func(t *testing.T) {
		cases := []struct {
			desired []int64
			current []models.Track
		}{
			{nil, observed(1, "a", 2, "b")},
			{[]int64{1, 2}, nil},
			{[]int64{1, 1, 2, 2}, observed(2, "a", 2, "b", 3, "c")},
			{[]int64{4, 3, 2, 1}, observed(1, "a", 2, "b", 3, "c", 4, "d")},
		}

		for _, tc := range cases {
			plan := Diff(ModeReplace, tc.desired, tc.current)
			for _, id := range plan.Add {
				if slices.Contains(plan.RemoveTrackIDs, id) {
					t.Errorf("track %d both added and removed for %v vs %v", id, tc.desired, tc.current)
				}
			}
		}
	})

	t.Run("replace removes in observed order", func(t *testing.T) {
		plan := Diff(ModeReplace, []int64{2}, observed(3, "c", 2, "b", 1, "a"))

		if !slices.Equal(plan.Remove, []string{"c", "a"}) {
			t.Errorf("expected [c a], got %v", plan.Remove)
		}
	})

	t.Run("duplicate desired ids collapse", func(t *testing.T) {
		plan := Diff(ModeAdd, []int64{1, 1, 2, 1}, nil)

		if !slices.Equal(plan.Add, []int64{1, 2}) {
			t.Errorf("expected [1 2], got %v", plan.Add)
		}
	})

	t.Run("empty inputs", func(t *testing.T) {
		for _, mode := range []Mode{ModeAdd, ModeDelete, ModeReplace} {
			if plan := Diff(mode, nil, nil); !plan.Empty() || plan.Mode != mode {
				t.Errorf("%s: expected empty plan, got %+v", mode, plan)
			}
		}
	})
}
