// Package cli provides the margin command line built on cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/margin/internal/core/ports/driving"
	"github.com/custodia-labs/margin/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Services are the driving ports the commands call.
type Services struct {
	Corpus    driving.CorpusService
	Search    driving.SearchService
	Assistant driving.AssistantService
	Source    driving.SourceService
	Link      driving.LinkService
	Settings  driving.SettingsService

	// Close releases adapters opened while building the services.
	Close func() error
}

// Overrides are root flags applied before services are built.
type Overrides struct {
	NotesRoot string
	ConfigDir string
}

// BootstrapFunc builds services from the persisted settings plus overrides.
type BootstrapFunc func(ctx context.Context, overrides Overrides) (*Services, error)

var (
	corpusService    driving.CorpusService
	searchService    driving.SearchService
	assistantService driving.AssistantService
	sourceService    driving.SourceService
	linkService      driving.LinkService
	settingsService  driving.SettingsService

	bootstrap BootstrapFunc
	closer    func() error
)

var (
	verbose   bool
	notesRoot string
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "margin",
	Short: "Ask questions of your notes",
	Long: `margin indexes a directory of Markdown and text notes with an embedding
model and answers questions from the most relevant passages.

Search runs against the local index; ask, summarize and chat also need a
language model. Wikilinks and daily-note entries can be resolved directly.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&notesRoot, "notes", "", "notes directory (overrides notes.root)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.margin)")
}

// SetServices installs ready-built services, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	corpusService = s.Corpus
	searchService = s.Search
	assistantService = s.Assistant
	sourceService = s.Source
	linkService = s.Link
	settingsService = s.Settings
	closer = s.Close
}

// SetBootstrap registers how services are built once flags are parsed.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases services afterwards.
func Execute() error {
	defer release()
	return rootCmd.Execute()
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if bootstrap == nil || settingsService != nil {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Overrides{NotesRoot: notesRoot, ConfigDir: configDir})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(svc)
	return nil
}

func release() {
	if closer == nil {
		return
	}
	if err := closer(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	closer = nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

var errNotConfigured = errors.New("not configured")

func requireService(name string, configured bool) error {
	if !configured {
		return fmt.Errorf("%s service %w", name, errNotConfigured)
	}
	return nil
}
