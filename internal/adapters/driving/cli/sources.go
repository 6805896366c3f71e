package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/margin/internal/core/domain"
)

var (
	sourcesFilter string
	sourcesJSON   bool
)

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Aliases: []string{"source"},
	Short:   "Browse the files behind the index",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed files grouped by kind",
	Long: `Lists every indexed file once, grouped into daily notes, Markdown, text
and other files. --filter keeps files whose path, title or tags contain
the given text, ignoring case.`,
	Args: cobra.NoArgs,
	RunE: runSourcesList,
}

var sourcesStatsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Show chunk and size statistics for a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesStats,
}

var sourcesChunksCmd = &cobra.Command{
	Use:   "chunks [file]",
	Short: "Print the chunks of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesChunks,
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print the full content of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesShow,
}

func init() {
	sourcesListCmd.Flags().StringVarP(&sourcesFilter, "filter", "f", "", "filter by path, title or tag")
	sourcesListCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesStatsCmd)
	sourcesCmd.AddCommand(sourcesChunksCmd)
	sourcesCmd.AddCommand(sourcesShowCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if err := requireService("source", sourceService != nil); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if sourcesJSON {
		list, err := sourceService.List(ctx, sourcesFilter)
		if err != nil {
			return fmt.Errorf("list sources: %w", err)
		}
		return printJSON(cmd, list)
	}

	groups, err := sourceService.Grouped(ctx, sourcesFilter)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if len(groups) == 0 {
		cmd.Println("No sources found.")
		return nil
	}

	for _, kind := range domain.SourceKinds() {
		files := groups[kind]
		if len(files) == 0 {
			continue
		}
		cmd.Printf("%s (%d)\n", kind.Description(), len(files))
		for i := range files {
			cmd.Printf("  %s  %q  %d chunks\n", files[i].File, files[i].Title, files[i].ChunkCount)
		}
		cmd.Println()
	}
	return nil
}

func runSourcesStats(cmd *cobra.Command, args []string) error {
	if err := requireService("source", sourceService != nil); err != nil {
		return err
	}

	stats, err := sourceService.Stats(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("stats for %s: %w", args[0], err)
	}

	cmd.Printf("File:           %s\n", args[0])
	cmd.Printf("Chunks:         %d\n", stats.Chunks)
	cmd.Printf("Characters:     %d\n", stats.Characters)
	cmd.Printf("Words:          %d\n", stats.Words)
	cmd.Printf("Avg chunk size: %d\n", stats.AvgChunkSize)
	return nil
}

func runSourcesChunks(cmd *cobra.Command, args []string) error {
	if err := requireService("source", sourceService != nil); err != nil {
		return err
	}

	chunks, err := sourceService.Chunks(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("chunks for %s: %w", args[0], err)
	}
	if len(chunks) == 0 {
		cmd.Println("No chunks.")
		return nil
	}

	for i := range chunks {
		cmd.Printf("--- chunk %d (%d chars) ---\n", chunks[i].ChunkIndex, len([]rune(chunks[i].Content)))
		cmd.Println(chunks[i].Content)
		cmd.Println()
	}
	return nil
}

func runSourcesShow(cmd *cobra.Command, args []string) error {
	if err := requireService("source", sourceService != nil); err != nil {
		return err
	}

	content, err := sourceService.Content(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	cmd.Print(content)
	return nil
}
