package sandbox_test

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/storyloom/storyloom/internal/gamestate"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/storyloom/storyloom/internal/sandbox"
	"github.com/storyloom/storyloom/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *sandbox.Engine {
	t.Helper()
	engine := sandbox.NewEngine(testhelpers.NewLogger(io.Discard))
	t.Cleanup(engine.Close)
	return engine
}

func TestEngine_Activate_MutatesState(t *testing.T) {
	engine := newTestEngine(t)
	log := sandbox.NewMemoryLog()
	surface := sandbox.NewMemorySurface()

	err := engine.Activate(`
		gameState.hp = 5;
		gameState.visited = true;
		log("entered the cave");
	`, log, surface)
	require.NoError(t, err)

	state := engine.State()
	require.Equal(t, int64(5), state["hp"])
	require.Equal(t, true, state["visited"])

	entries := log.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, sandbox.LevelInfo, entries[0].Level)
	require.Equal(t, "entered the cave", entries[0].Text)
}

func TestEngine_Activate_RendersMarkup(t *testing.T) {
	engine := newTestEngine(t)
	log := sandbox.NewMemoryLog()
	surface := sandbox.NewMemorySurface()

	err := engine.Activate(`
		render('<div class="riddle"><p>What walks on four legs?</p><button id="answer">Answer</button></div>');
	`, log, surface)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(surface.HTML()))
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find("div.riddle").Length())
	require.Equal(t, "Answer", doc.Find("#answer").Text())
}

func TestEngine_Activate_SurfaceListeners(t *testing.T) {
	engine := newTestEngine(t)
	log := sandbox.NewMemoryLog()
	surface := sandbox.NewMemorySurface()

	err := engine.Activate(`
		surface.replace('<input id="guess">');
		surface.on("guess", function (value) {
			if (value === "man") {
				gameState.solved = true;
				surface.replace('<p class="correct">Correct!</p>');
			} else {
				log("wrong guess: " + value);
			}
		});
	`, log, surface)
	require.NoError(t, err)

	engine.Dispatch("guess", "sphinx")
	require.Nil(t, engine.State()["solved"])
	entries := log.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "wrong guess: sphinx", entries[0].Text)

	engine.Dispatch("guess", "man")
	require.Equal(t, true, engine.State()["solved"])

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(surface.HTML()))
	require.NoError(t, err)
	require.Equal(t, "Correct!", doc.Find("p.correct").Text())
}

func TestEngine_Activate_ExceptionIsContained(t *testing.T) {
	engine := newTestEngine(t)
	log := sandbox.NewMemoryLog()
	surface := sandbox.NewMemorySurface()

	err := engine.Activate(`
		gameState.before = 1;
		throw new Error("boom");
	`, log, surface)
	require.NoError(t, err, "script exceptions never propagate")

	require.True(t, log.HasError())
	require.Equal(t, int64(1), engine.State()["before"],
		"mutations before the exception stick")

	// The engine keeps working after a broken script.
	require.NoError(t, engine.Activate(`gameState.after = 2;`, log, surface))
	require.Equal(t, int64(2), engine.State()["after"])
}

func TestEngine_Activate_SyntaxErrorIsContained(t *testing.T) {
	engine := newTestEngine(t)
	log := sandbox.NewMemoryLog()

	err := engine.Activate(`this is not javascript`, log, sandbox.NewMemorySurface())
	require.NoError(t, err)
	require.True(t, log.HasError())
}

func TestEngine_Activate_NormalizesStateIdentifier(t *testing.T) {
	engine := newTestEngine(t)
	log := sandbox.NewMemoryLog()

	err := engine.Activate(`GameState.hp = 7;`, log, sandbox.NewMemorySurface())
	require.NoError(t, err)
	require.False(t, log.HasError())
	require.Equal(t, int64(7), engine.State()["hp"])
}

func TestNormalizeIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "bare identifier",
			source: "GameState.hp = 1;",
			want:   "gameState.hp = 1;",
		},
		{
			name:   "already canonical",
			source: "gameState.hp = 1;",
			want:   "gameState.hp = 1;",
		},
		{
			name:   "substring of a longer identifier is untouched",
			source: "var myGameStateView = GameState.hp;",
			want:   "var myGameStateView = gameState.hp;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, sandbox.NormalizeIdentifiers(tt.source))
		})
	}
}

func TestEngine_AsyncCallbacksKeepMutating(t *testing.T) {
	engine := newTestEngine(t)
	log := sandbox.NewMemoryLog()

	err := engine.Activate(`
		setTimeout(function () {
			gameState.late = "arrived";
			log("late write");
		}, 10);
	`, log, sandbox.NewMemorySurface())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return engine.State()["late"] == "arrived"
	}, 2*time.Second, 10*time.Millisecond,
		"asynchronous continuations mutate state after the initial call returns")
}

func TestEngine_StripNodeScoped_SupersedesStaleWrites(t *testing.T) {
	engine := newTestEngine(t)
	settings := models.WorldSettings{Combat: true}
	log := sandbox.NewMemoryLog()

	err := engine.Activate(`
		gameState.health = 10;
		gameState.puzzleStage = 3;
	`, log, sandbox.NewMemorySurface())
	require.NoError(t, err)

	engine.StripNodeScoped(settings)

	require.Equal(t, gamestate.State{"health": int64(10)}, engine.State(),
		"allow-listed keys retain their values, node-scoped keys are discarded")
}

func TestEngine_ReactivationRunsFreshScope(t *testing.T) {
	engine := newTestEngine(t)
	log := sandbox.NewMemoryLog()
	surface := sandbox.NewMemorySurface()
	script := `gameState.hp = 5;`

	require.NoError(t, engine.Activate(script, log, surface))
	engine.MutateState(func(state gamestate.State) {
		delete(state, "hp")
	})
	require.NoError(t, engine.Activate(script, log, surface))
	require.Equal(t, int64(5), engine.State()["hp"],
		"scripts run on every entry, not once per story")
}
