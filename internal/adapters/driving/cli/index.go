package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/margin/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load and embed the notes directory",
	Long: `Reads every note under the notes root, chunks it and embeds each chunk.
Unchanged chunks are served from the embedding cache; --rebuild clears
every cache first. Files that cannot be read or parsed are reported and
skipped.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexRebuild bool

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "clear cached embeddings and re-embed everything")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if err := requireService("corpus", corpusService != nil); err != nil {
		return err
	}

	start := time.Now()
	load := corpusService.Load
	if indexRebuild {
		load = corpusService.Reload
	}
	snap, err := load(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	printSnapshot(cmd, snap, time.Since(start))
	return nil
}

func printSnapshot(cmd *cobra.Command, snap *domain.Snapshot, took time.Duration) {
	corpus := snap.Corpus
	cmd.Printf("Indexed %d chunks from %d files in %s\n",
		corpus.Len(), len(corpus.Files()), took.Round(time.Millisecond))
	if snap.Index != nil && !snap.Index.Empty() {
		cmd.Printf("  Model: %s (%d dimensions)\n", snap.Index.Model, snap.Index.Dimensions)
	}
	cmd.Printf("  Root: %s\n", corpus.Root)

	if len(corpus.Warnings) > 0 {
		cmd.Println()
		cmd.Printf("Skipped %d files:\n", len(corpus.Warnings))
		for _, w := range corpus.Warnings {
			cmd.Printf("  %s\n", w.Error())
		}
	}
}
