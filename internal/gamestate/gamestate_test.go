package gamestate_test

import (
	"testing"

	"github.com/storyloom/storyloom/internal/gamestate"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/stretchr/testify/require"
)

func TestState_StripNodeScoped(t *testing.T) {
	allTracking := models.WorldSettings{Inventory: true, Economy: true, Combat: true}

	tests := []struct {
		name     string
		settings models.WorldSettings
		state    gamestate.State
		want     gamestate.State
	}{
		{
			name:     "node-scoped keys are discarded",
			settings: allTracking,
			state: gamestate.State{
				"health":      int64(10),
				"maxHealth":   int64(10),
				"currency":    int64(5),
				"inventory":   []any{"lantern"},
				"puzzleStage": int64(3),
				"sawGhost":    true,
			},
			want: gamestate.State{
				"health":    int64(10),
				"maxHealth": int64(10),
				"currency":  int64(5),
				"inventory": []any{"lantern"},
			},
		},
		{
			name:     "disabled tracking demotes its keys",
			settings: models.WorldSettings{Inventory: true},
			state: gamestate.State{
				"health":    int64(10),
				"currency":  int64(5),
				"inventory": []any{"lantern"},
			},
			want: gamestate.State{
				"inventory": []any{"lantern"},
			},
		},
		{
			name:     "empty state stays empty",
			settings: allTracking,
			state:    gamestate.New(),
			want:     gamestate.State{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.state.StripNodeScoped(tt.settings)
			require.Equal(t, tt.want, tt.state)
		})
	}
}

func TestState_StripNodeScoped_MutatesInPlace(t *testing.T) {
	state := gamestate.State{"health": int64(3), "temp": "x"}
	alias := state
	state.StripNodeScoped(models.WorldSettings{Combat: true})
	require.Equal(t, gamestate.State{"health": int64(3)}, alias,
		"lingering references observe the stripped map")
}
