package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads prompt templates from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist or are unusable, and as the
// initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: `You are a helpful assistant that answers questions based on the provided notes.
Answer the question using only the information from the sources below. If you cannot find the answer in the provided sources, say so clearly.

Question: %s

Sources:%s

Answer based on the sources above:`,

	driven.PromptSummary: `Based on the provided sources, give a brief overview for: "%s"

Keep it concise - just 2-3 sentences highlighting the key points.
If the sources do not cover the topic, say that nothing relevant was found.

SOURCES:%s

OVERVIEW:`,

	driven.PromptChatSystem: `You are a note-taking assistant. You answer from the user's own notes, which are quoted as numbered sources in each question.
Cite sources by file name. Keep answers short and say plainly when the notes do not contain the answer.`,
}

// placeholders is the number of %s verbs each template must contain.
var placeholders = map[string]int{
	driven.PromptAnswer:     2,
	driven.PromptSummary:    2,
	driven.PromptChatSystem: 0,
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.margin/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// A file whose %s count does not match the template's arguments is ignored
// in favour of the default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	if want, known := placeholders[name]; known && countVerbs(prompt) != want {
		logger.Warn("Prompt %s.txt needs %d %%s placeholders, using the default", name, want)
		prompt = defaultPrompts[name]
	}

	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// countVerbs counts %s verbs, skipping escaped %%.
func countVerbs(tmpl string) int {
	return strings.Count(strings.ReplaceAll(tmpl, "%%", ""), "%s")
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Margin Prompts

This directory contains the prompts margin sends to the language model.

## Files

- ` + "`answer.txt`" + ` - Answers a question from retrieved note chunks
- ` + "`summary.txt`" + ` - Gives a short overview of a topic across notes
- ` + "`chat_system.txt`" + ` - System message for chat sessions

## Customisation

Edit any file to change the wording. Changes take effect on the next
command or after restarting the TUI.

## Format Placeholders

` + "`answer.txt`" + ` and ` + "`summary.txt`" + ` take two ` + "`%s`" + ` placeholders:
the question or query, then the block of numbered sources. Write a literal
percent sign as ` + "`%%`" + `. A file with the wrong number of placeholders
is ignored and the built-in prompt is used.
`
	return os.WriteFile(path, []byte(content), 0600)
}
