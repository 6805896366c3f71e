package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/services"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "View and change settings",
	Long: `Settings live in ~/.margin/config.toml. Use "config set" for plain values
and "config set-key" to enter an API key without echoing it.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Run "margin config keys" for the list of keys.

Examples:
  margin config set notes.root ~/notes
  margin config set embedding.provider hashing
  margin config set search.top_k 8`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetKeyCmd = &cobra.Command{
	Use:       "set-key [embedding|llm]",
	Short:     "Store an API key read from the terminal",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"embedding", "llm"},
	RunE:      runConfigSetKey,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range services.SettingKeys() {
			cmd.Println(k)
		}
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and contact the configured providers",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := requireService("settings", settingsService != nil); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("[Notes]")
	cmd.Printf("  Root: %s\n", settings.Notes.Root)
	cmd.Printf("  Max chunk length: %d\n", settings.Notes.MaxChunkLength)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
		cmd.Printf("  Concurrency: %d\n", settings.Embedding.Concurrency)
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Requests/second: %g\n", settings.Embedding.RequestsPerSecond)
	}
	printKeyStatus(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printKeyStatus(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Top K: %d (summary %d, chat %d)\n",
		settings.Retrieval.TopK, settings.Retrieval.SummaryTopK, settings.Retrieval.ChatTopK)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", settings.Cache.Backend)
	if settings.Cache.Backend == domain.CacheBackendSQLite && settings.Cache.Path != "" {
		cmd.Printf("  Path: %s\n", settings.Cache.Path)
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'margin config set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireService("settings", settingsService != nil); err != nil {
		return err
	}

	key, raw := args[0], args[1]
	if services.IsSecretKey(key) {
		return fmt.Errorf("%s is a secret; use 'margin config set-key' instead", key)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := services.ApplySetting(settings, key, raw); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Set %s = %s\n", key, raw)
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	if err := requireService("settings", settingsService != nil); err != nil {
		return err
	}

	var key string
	switch args[0] {
	case "embedding":
		key = services.KeyEmbedAPIKey
	case "llm":
		key = services.KeyLLMAPIKey
	default:
		return fmt.Errorf("%w: expected embedding or llm, got %q", domain.ErrInvalidInput, args[0])
	}

	cmd.Printf("API key for %s: ", args[0])
	secret, err := readSecret(cmd.InOrStdin())
	cmd.Println()
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	if secret == "" {
		return errors.New("no key entered")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := services.ApplySetting(settings, key, secret); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Stored %s (%s)\n", key, maskAPIKey(secret))
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if err := requireService("settings", settingsService != nil); err != nil {
		return err
	}

	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	cmd.Println("Settings: ok")

	ctx := commandContext(cmd)
	if err := settingsService.ValidateEmbeddingConfig(ctx); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	cmd.Println("Embedding: ok")

	if err := settingsService.ValidateLLMConfig(ctx); err != nil {
		cmd.Printf("LLM: %v\n", err)
		cmd.Println("Search still works; ask, summarize and chat need a reachable model.")
		return nil
	}
	cmd.Println("LLM: ok")
	return nil
}

// readSecret reads one line without echo when in is a terminal.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printKeyStatus(cmd *cobra.Command, provider domain.AIProvider, apiKey string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if apiKey == "" {
		cmd.Println("  API Key: (not set)")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
