package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui"
	"github.com/custodia-labs/margin/internal/adapters/driving/tui/messages"
)

// stubProgram replaces runProgram for one test.
func stubProgram(t *testing.T, fn func(app *tui.App) error) {
	t.Helper()
	original := runProgram
	runProgram = fn
	t.Cleanup(func() { runProgram = original })
}

func TestTUICmd_Exists(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "tui" {
			found = true
			break
		}
	}
	assert.True(t, found, "tui command should be registered")
}

func TestTUICmd_ShortDescription(t *testing.T) {
	assert.Equal(t, "Launch the interactive terminal UI", tuiCmd.Short)
}

func TestTUICmd_LongDescription(t *testing.T) {
	assert.Contains(t, tuiCmd.Long, "wikilinks")
	assert.Contains(t, tuiCmd.Long, "Esc")
}

func TestTUICmd_Flags(t *testing.T) {
	limit := tuiCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "n", limit.Shorthand)
	assert.Equal(t, "0", limit.DefValue)

	watch := tuiCmd.Flags().Lookup("watch")
	require.NotNil(t, watch)
	assert.Equal(t, "false", watch.DefValue)
}

func TestTUICmd_StartsAtMenu(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var started *tui.App
	stubProgram(t, func(app *tui.App) error {
		started = app
		return nil
	})

	_, err := executeCommand(t, "tui", "--limit", "3")

	require.NoError(t, err)
	require.NotNil(t, started)
	assert.Equal(t, messages.ViewMenu, started.CurrentView())
}

func TestTUICmd_RunError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	boom := errors.New("no tty")
	stubProgram(t, func(*tui.App) error { return boom })

	_, err := executeCommand(t, "tui")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "TUI error")
}

func TestTUICmd_RecoversPanic(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stubProgram(t, func(*tui.App) error { panic("render failed") })

	_, err := executeCommand(t, "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUI panic: render failed")
}

func TestTUICmd_RequiresSearchAndSource(t *testing.T) {
	restore := clearServices()
	defer restore()

	stubProgram(t, func(*tui.App) error {
		t.Fatal("program should not start")
		return nil
	})

	_, err := executeCommand(t, "tui")

	require.Error(t, err)
	assert.ErrorIs(t, err, tui.ErrMissingSearchService)
}
