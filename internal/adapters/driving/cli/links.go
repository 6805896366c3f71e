package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/margin/internal/core/domain"
)

var linksJSON bool

var linksCmd = &cobra.Command{
	Use:     "links",
	Aliases: []string{"link"},
	Short:   "Resolve wikilinks and daily-note entries",
	Long: `Resolves [[wikilinks]] against indexed files. A link matches a file by
exact name, then by exact title, then by the closest fuzzy match.`,
}

var linksResolveCmd = &cobra.Command{
	Use:   "resolve [link]",
	Short: "Resolve a wikilink to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinksResolve,
}

var linksRefsCmd = &cobra.Command{
	Use:     "refs [file]",
	Aliases: []string{"references"},
	Short:   "List the wikilinks written in a file",
	Args:    cobra.ExactArgs(1),
	RunE:    runLinksRefs,
}

var linksBacklinksCmd = &cobra.Command{
	Use:   "backlinks [file]",
	Short: "List wikilinks elsewhere that point at a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinksBacklinks,
}

var linksDailyCmd = &cobra.Command{
	Use:   "daily [file]",
	Short: "List the timestamped entries of a daily note",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinksDaily,
}

func init() {
	linksCmd.PersistentFlags().BoolVar(&linksJSON, "json", false, "output as JSON")
	linksCmd.AddCommand(linksResolveCmd)
	linksCmd.AddCommand(linksRefsCmd)
	linksCmd.AddCommand(linksBacklinksCmd)
	linksCmd.AddCommand(linksDailyCmd)
	rootCmd.AddCommand(linksCmd)
}

func runLinksResolve(cmd *cobra.Command, args []string) error {
	if err := requireService("link", linkService != nil); err != nil {
		return err
	}

	res, err := linkService.Resolve(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}
	if linksJSON {
		return printJSON(cmd, res)
	}
	if !res.Resolved() {
		cmd.Printf("[[%s]] is unresolved\n", res.Link)
		return nil
	}
	cmd.Printf("[[%s]] -> %s (%s)\n", res.Link, res.File, res.Strategy)
	return nil
}

func runLinksRefs(cmd *cobra.Command, args []string) error {
	if err := requireService("link", linkService != nil); err != nil {
		return err
	}

	refs, err := linkService.References(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("references in %s: %w", args[0], err)
	}
	return printReferences(cmd, refs, false)
}

func runLinksBacklinks(cmd *cobra.Command, args []string) error {
	if err := requireService("link", linkService != nil); err != nil {
		return err
	}

	refs, err := linkService.Backlinks(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("backlinks to %s: %w", args[0], err)
	}
	return printReferences(cmd, refs, true)
}

func runLinksDaily(cmd *cobra.Command, args []string) error {
	if err := requireService("link", linkService != nil); err != nil {
		return err
	}

	entries, err := linkService.DailyEntries(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("entries in %s: %w", args[0], err)
	}
	if linksJSON {
		return printJSON(cmd, entries)
	}
	if len(entries) == 0 {
		cmd.Println("No entries found.")
		return nil
	}

	for i := range entries {
		e := &entries[i]
		cmd.Printf("%s  %s\n", e.Timestamp, e.Description)
		if e.Status != "" || e.Area != "" {
			cmd.Printf("       status: %s  area: %s\n", orDash(e.Status), orDash(e.Area))
		}
		for _, l := range e.Links {
			cmd.Printf("       [[%s]]\n", l)
		}
	}
	return nil
}

func printReferences(cmd *cobra.Command, refs []domain.LinkReference, showSource bool) error {
	if linksJSON {
		return printJSON(cmd, refs)
	}
	if len(refs) == 0 {
		cmd.Println("No links found.")
		return nil
	}

	for i := range refs {
		r := &refs[i]
		target := "(unresolved)"
		if r.Resolution.Resolved() {
			target = r.Resolution.File
		}
		if showSource {
			cmd.Printf("%s: [[%s]]\n", r.Source, r.Link)
		} else {
			cmd.Printf("[[%s]] -> %s\n", r.Link, target)
		}
		if r.Context != nil {
			cmd.Printf("    %s  %s\n", r.Context.Timestamp, r.Context.Description)
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
