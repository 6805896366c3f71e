package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/margin/internal/adapters/driving/tui"
)

// runProgram starts the interactive app. Tests replace it.
var runProgram = func(app *tui.App) error {
	return app.Run()
}

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for margin.

Search your notes, chat with them, browse indexed files and follow wikilinks
with keyboard navigation.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Select / Ask
  Esc      - Back
  r        - Re-index (from the menu)
  ctrl+c   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntP("limit", "n", 0, "passages per search (default 5)")
	tuiCmd.Flags().Bool("watch", false, "re-index when the notes directory changes")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}

	ports := &tui.Ports{
		Search:    searchService,
		Source:    sourceService,
		Assistant: assistantService,
		Link:      linkService,
		Corpus:    corpusService,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()
	app.WithContext(ctx).WithTopK(limit)

	if watch && corpusService != nil {
		watchInBackground(ctx, corpusService)
	}

	if err := runProgram(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
