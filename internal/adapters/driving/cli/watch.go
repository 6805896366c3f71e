package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driving"
	"github.com/custodia-labs/margin/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-index whenever the notes directory changes",
	Long: `Indexes the notes root, then watches it and reloads after each burst of
changes. Unchanged chunks are not re-embedded. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := requireService("corpus", corpusService != nil); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	snap, err := corpusService.Load(ctx)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	printSnapshot(cmd, snap, time.Since(start))
	cmd.Println()
	cmd.Println("Watching for changes. Press Ctrl+C to stop.")

	return corpusService.Watch(ctx, func(snap *domain.Snapshot, err error) {
		if err != nil {
			cmd.PrintErrf("reload failed: %v\n", err)
			return
		}
		cmd.Printf("[%s] %d chunks from %d files\n",
			snap.LoadedAt.Format(time.TimeOnly), snap.Corpus.Len(), len(snap.Corpus.Files()))
	})
}

// watchInBackground keeps corpus current while another surface runs.
func watchInBackground(ctx context.Context, corpus driving.CorpusService) {
	go func() {
		err := corpus.Watch(ctx, func(snap *domain.Snapshot, err error) {
			if err != nil {
				logger.Warn("Reload failed: %v", err)
				return
			}
			logger.Info("Reloaded %d chunks", snap.Corpus.Len())
		})
		if err != nil {
			logger.Error("Watcher stopped: %v", err)
		}
	}()
}
