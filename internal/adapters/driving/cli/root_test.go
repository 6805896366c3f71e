package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "margin", rootCmd.Use)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "notes", "config"} {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name))
		})
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"search", "ask", "summarize", "chat", "index", "watch",
		"sources", "links", "config", "mcp", "tui", "version",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestBootstrap_ReceivesOverrides(t *testing.T) {
	restore := clearServices()
	defer restore()
	defer SetBootstrap(nil)

	var got Overrides
	SetBootstrap(func(_ context.Context, o Overrides) (*Services, error) {
		got = o
		return &Services{Settings: &MockSettingsService{}}, nil
	})

	_, err := executeCommand(t, "--notes", "/tmp/notes", "--config", "/tmp/cfg", "version")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/notes", got.NotesRoot)
	assert.Equal(t, "/tmp/cfg", got.ConfigDir)
}

func TestBootstrap_ErrorIsWrapped(t *testing.T) {
	restore := clearServices()
	defer restore()
	defer SetBootstrap(nil)

	boom := errors.New("boom")
	SetBootstrap(func(context.Context, Overrides) (*Services, error) {
		return nil, boom
	})

	_, err := executeCommand(t, "version")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "initialise")
}

func TestBootstrap_SkippedWhenServicesSet(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer SetBootstrap(nil)

	called := false
	SetBootstrap(func(context.Context, Overrides) (*Services, error) {
		called = true
		return &Services{}, nil
	})

	_, err := executeCommand(t, "version")

	require.NoError(t, err)
	assert.False(t, called)
}

func TestRelease_CallsCloserOnce(t *testing.T) {
	calls := 0
	closer = func() error {
		calls++
		return nil
	}

	release()
	release()

	assert.Equal(t, 1, calls)
	assert.Nil(t, closer)
}

func TestRequireService(t *testing.T) {
	assert.NoError(t, requireService("search", true))

	err := requireService("search", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotConfigured)
	assert.Equal(t, "search service not configured", err.Error())
}
