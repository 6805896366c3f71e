package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/memo"
	"github.com/custodia-labs/margin/internal/normalisers"
	"github.com/custodia-labs/margin/internal/postprocessors"
)

// --- Mock implementations ---

// testVocabulary gives the keyword embedder one dimension per word.
var testVocabulary = []string{"cats", "dogs", "garden", "coffee", "project"}

// mockEmbeddingService implements driven.EmbeddingService by counting
// vocabulary words, so texts about the same topic point the same way.
type mockEmbeddingService struct {
	mu       sync.Mutex
	embedErr error
	dims     int
	batches  [][]string
	queries  []string
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	dims := len(testVocabulary)
	if m.dims > 0 {
		dims = m.dims
	}
	v := make([]float32, dims)
	lower := strings.ToLower(text)
	for i, word := range testVocabulary {
		if i < dims {
			v[i] = float32(strings.Count(lower, word))
		}
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.queries = append(m.queries, text)
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(testVocabulary)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

func (m *mockEmbeddingService) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockEmbeddingService) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// mockLLMService implements driven.LLMService and records its calls.
type mockLLMService struct {
	response string
	err      error

	prompts  []string
	messages [][]driven.ChatMessage
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.messages = append(m.messages, messages)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

func (m *mockLLMService) calls() int {
	return len(m.prompts) + len(m.messages)
}

// mockPromptStore implements driven.PromptStore with fixed templates.
type mockPromptStore struct {
	templates map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{templates: map[string]string{
		driven.PromptAnswer:     "Q: %s\nSOURCES:%s",
		driven.PromptSummary:    "OVERVIEW OF %s:%s",
		driven.PromptChatSystem: "be brief",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", domain.ErrConfigNotFound
	}
	return t, nil
}

func (m *mockPromptStore) Reload() {}

// mockNoteSource implements driven.NoteSource over an in-memory file set.
type mockNoteSource struct {
	mu       sync.Mutex
	files    map[string]string
	scanErr  error
	scans    int
	changes  chan struct{}
	watchErr error
}

func newMockNoteSource(files map[string]string) *mockNoteSource {
	if files == nil {
		files = map[string]string{}
	}
	return &mockNoteSource{files: files, changes: make(chan struct{}, 1)}
}

func (m *mockNoteSource) Root() string {
	return "/notes"
}

func (m *mockNoteSource) set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

func (m *mockNoteSource) paths() []string {
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *mockNoteSource) Fingerprint(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var parts []string
	for _, p := range m.paths() {
		parts = append(parts, p, m.files[p])
	}
	return memo.Fingerprint(parts...), nil
}

func (m *mockNoteSource) Scan(_ context.Context) ([]domain.RawNote, []domain.LoadWarning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	if m.scanErr != nil {
		return nil, nil, m.scanErr
	}
	var notes []domain.RawNote
	for _, p := range m.paths() {
		notes = append(notes, domain.RawNote{
			Path:    p,
			Content: []byte(m.files[p]),
			Size:    int64(len(m.files[p])),
			ModTime: time.Unix(0, 0),
		})
	}
	return notes, nil, nil
}

func (m *mockNoteSource) Read(_ context.Context, file string) (*domain.RawNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.HasPrefix(file, "..") || strings.HasPrefix(file, "/") {
		return nil, domain.ErrInvalidInput
	}
	content, ok := m.files[file]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.RawNote{Path: file, Content: []byte(content), Size: int64(len(content))}, nil
}

func (m *mockNoteSource) Watch(_ context.Context) (<-chan struct{}, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	return m.changes, nil
}

func (m *mockNoteSource) Close() error {
	return nil
}

func (m *mockNoteSource) scanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scans
}

// mockEmbeddingCache implements driven.EmbeddingCache in memory.
type mockEmbeddingCache struct {
	mu      sync.Mutex
	vectors map[string][]float32
	getErr  error
	cleared int
}

func newMockEmbeddingCache() *mockEmbeddingCache {
	return &mockEmbeddingCache{vectors: map[string][]float32{}}
}

func (m *mockEmbeddingCache) Get(_ context.Context, model string, hashes []string) (map[string][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := map[string][]float32{}
	for _, h := range hashes {
		if v, ok := m.vectors[model+"/"+h]; ok {
			out[h] = v
		}
	}
	return out, nil
}

func (m *mockEmbeddingCache) Put(_ context.Context, model string, vectors map[string][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, v := range vectors {
		m.vectors[model+"/"+h] = v
	}
	return nil
}

func (m *mockEmbeddingCache) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = map[string][]float32{}
	m.cleared++
	return nil
}

func (m *mockEmbeddingCache) Close() error {
	return nil
}

var errBoom = errors.New("boom")

// --- Fixtures ---

// testNotes is a small corpus touching each vocabulary topic.
func testNotes() map[string]string {
	return map[string]string{
		"a.md":                "---\ntitle: Cats\ntags: [pets]\n---\nCats sleep all day. Cats purr.",
		"b.md":                "# Garden\nThe garden needs water. See [[a]] and [[Coffee Log]].",
		"coffee.txt":          "Coffee tasting notes. Coffee from the project kickoff.",
		"daily/2024-01-02.md": "09:00 Standup [[b]]\nstatus:: done\n---\n10:30 Coffee with [[missing]]",
	}
}

// newTestCorpus wires a corpus service over files with the real
// normalisers and chunker.
func newTestCorpus(
	files map[string]string, embedder driven.EmbeddingService, cache driven.EmbeddingCache,
) (*CorpusService, *mockNoteSource) {
	source := newMockNoteSource(files)
	pipeline, err := postprocessors.DefaultPipeline(1000)
	if err != nil {
		panic(err)
	}
	return NewCorpusService(source, normalisers.NewDefaultRegistry(), pipeline, embedder, cache), source
}
