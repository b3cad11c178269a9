package optim

import (
	"context"
	"testing"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
)

func TestGridSearch_FindsMinimum(t *testing.T) {
	base := config.GetPreset("rain")
	base.Duration = 0.2
	base.Spawn.Count = 9

	g := NewGridSearch([]string{"count", "sub_steps"}, [][]float64{{4, 9}, {2, 4}})
	params, best, trials, err := g.Search(context.Background(), base, experiment.NewRegistry(), "particles")
	if err != nil {
		t.Fatal(err)
	}

	if len(trials) != 4 {
		t.Errorf("evaluated %d combinations, want 4", len(trials))
	}
	if best != 4 || params["count"] != 4 {
		t.Errorf("best = %v at %v, want 4 particles", best, params)
	}
}

func TestGridSearch_Errors(t *testing.T) {
	base := config.GetPreset("single")
	reg := experiment.NewRegistry()

	if _, _, _, err := NewGridSearch([]string{"count"}, nil).Search(context.Background(), base, reg, "energy"); err == nil {
		t.Error("expected mismatched ranges error")
	}
	if _, _, _, err := NewGridSearch([]string{"mass"}, [][]float64{{1}}).Search(context.Background(), base, reg, "energy"); err == nil {
		t.Error("expected unknown parameter error")
	}
	if _, _, _, err := NewGridSearch([]string{"speed"}, [][]float64{{1}}).Search(context.Background(), base, reg, "nope"); err == nil {
		t.Error("expected unknown metric error")
	}
}
