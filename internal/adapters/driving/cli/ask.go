package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/margin/internal/core/domain"
)

var (
	askLimit       int
	askJSON        bool
	summarizeLimit int
	summarizeJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from your notes",
	Long: `Retrieves the most relevant chunks and asks the language model to answer
using only those sources. Sources are listed under the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:     "summarize [topic]",
	Aliases: []string{"summarise"},
	Short:   "Summarize what your notes say about a topic",
	Args:    cobra.ExactArgs(1),
	RunE:    runSummarize,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat over your notes",
	Long: `Reads one question per line and answers each from your notes. Earlier
turns are kept as conversation history. Type "exit" or send EOF to stop.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "number of sources to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	summarizeCmd.Flags().IntVarP(&summarizeLimit, "limit", "n", 0, "number of sources to retrieve (default from settings)")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(chatCmd)
}

// generatedOutput is the JSON shape for ask and summarize.
type generatedOutput struct {
	Query   string                `json:"query"`
	Outcome domain.Outcome        `json:"outcome"`
	Text    string                `json:"text"`
	Model   string                `json:"model,omitempty"`
	Sources []domain.SearchResult `json:"sources"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireService("assistant", assistantService != nil); err != nil {
		return err
	}

	answer, err := assistantService.Ask(commandContext(cmd), args[0], domain.SearchOptions{TopK: askLimit})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, generatedOutput{
			Query:   answer.Question,
			Outcome: answer.Outcome,
			Text:    answer.Text(),
			Model:   answer.Result.Model,
			Sources: answer.Sources,
		})
	}
	cmd.Println(answer.Text())
	printSources(cmd, answer.Sources)
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if err := requireService("assistant", assistantService != nil); err != nil {
		return err
	}

	summary, err := assistantService.Summarize(commandContext(cmd), args[0], domain.SearchOptions{TopK: summarizeLimit})
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	if summarizeJSON {
		return printJSON(cmd, generatedOutput{
			Query:   summary.Query,
			Outcome: summary.Outcome,
			Text:    summary.Text(),
			Model:   summary.Result.Model,
			Sources: summary.Sources,
		})
	}
	cmd.Println(summary.Text())
	printSources(cmd, summary.Sources)
	return nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := requireService("assistant", assistantService != nil); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	session := assistantService.NewSession()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	cmd.Println(`Ask a question, or type "exit" to quit.`)
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		next, answer, err := assistantService.Converse(ctx, session, question)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			continue
		}
		session = next
		cmd.Println(answer.Text())
		printSources(cmd, answer.Sources)
		cmd.Println()
	}
	return scanner.Err()
}

func printSources(cmd *cobra.Command, sources []domain.SearchResult) {
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i := range sources {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, sources[i].File, sources[i].Similarity)
	}
}
