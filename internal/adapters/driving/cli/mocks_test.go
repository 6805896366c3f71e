package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/margin/internal/core/domain"
)

// MockCorpusService is a test double for driving.CorpusService.
type MockCorpusService struct {
	LoadFn   func(ctx context.Context) (*domain.Snapshot, error)
	ReloadFn func(ctx context.Context) (*domain.Snapshot, error)
	WatchFn  func(ctx context.Context, onLoad func(*domain.Snapshot, error)) error

	loads   int
	reloads int
}

func (m *MockCorpusService) Load(ctx context.Context) (*domain.Snapshot, error) {
	m.loads++
	if m.LoadFn != nil {
		return m.LoadFn(ctx)
	}
	return testSnapshot(), nil
}

func (m *MockCorpusService) Reload(ctx context.Context) (*domain.Snapshot, error) {
	m.reloads++
	if m.ReloadFn != nil {
		return m.ReloadFn(ctx)
	}
	return testSnapshot(), nil
}

func (m *MockCorpusService) Current() *domain.Snapshot {
	return testSnapshot()
}

func (m *MockCorpusService) Invalidate(_ context.Context) error {
	return nil
}

func (m *MockCorpusService) Watch(ctx context.Context, onLoad func(*domain.Snapshot, error)) error {
	if m.WatchFn != nil {
		return m.WatchFn(ctx, onLoad)
	}
	return nil
}

// MockSearchService is a test double for driving.SearchService.
type MockSearchService struct {
	SearchFn func(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *MockSearchService) Search(
	ctx context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.SearchFn != nil {
		return m.SearchFn(ctx, query, opts)
	}
	return testResults(), nil
}

func (m *MockSearchService) Suggestions(_ context.Context, _ int) ([]string, error) {
	return []string{"Garden"}, nil
}

// MockAssistantService is a test double for driving.AssistantService.
type MockAssistantService struct {
	AskFn       func(ctx context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error)
	SummarizeFn func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Summary, error)
	ConverseFn  func(ctx context.Context, s domain.Session, q string) (domain.Session, *domain.Answer, error)

	questions []string
}

func (m *MockAssistantService) Ask(
	ctx context.Context,
	question string,
	opts domain.SearchOptions,
) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	if m.AskFn != nil {
		return m.AskFn(ctx, question, opts)
	}
	return answered(question), nil
}

func (m *MockAssistantService) Summarize(
	ctx context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.Summary, error) {
	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx, query, opts)
	}
	return &domain.Summary{
		Query:   query,
		Outcome: domain.OutcomeAnswered,
		Sources: testResults()[:1],
		Result:  domain.GenerationResult{Text: "A short overview.", Model: "test-model"},
	}, nil
}

func (m *MockAssistantService) Converse(
	ctx context.Context,
	session domain.Session,
	question string,
) (domain.Session, *domain.Answer, error) {
	m.questions = append(m.questions, question)
	if m.ConverseFn != nil {
		return m.ConverseFn(ctx, session, question)
	}
	answer := answered(question)
	next := session.WithTurn(domain.Turn{
		Question: question,
		Answer:   answer.Text(),
		Outcome:  answer.Outcome,
		AskedAt:  time.Now(),
	})
	return next, answer, nil
}

func (m *MockAssistantService) NewSession() domain.Session {
	return domain.Session{ID: "test-session"}
}

// MockSourceService is a test double for driving.SourceService.
type MockSourceService struct {
	ListFn    func(ctx context.Context, filter string) ([]domain.SourceSummary, error)
	ContentFn func(ctx context.Context, file string) (string, error)

	lastFilter string
}

func (m *MockSourceService) List(ctx context.Context, filter string) ([]domain.SourceSummary, error) {
	m.lastFilter = filter
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return testSources(), nil
}

func (m *MockSourceService) Grouped(
	ctx context.Context,
	filter string,
) (map[domain.SourceKind][]domain.SourceSummary, error) {
	list, err := m.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	groups := make(map[domain.SourceKind][]domain.SourceSummary)
	for i := range list {
		groups[list[i].Kind] = append(groups[list[i].Kind], list[i])
	}
	return groups, nil
}

func (m *MockSourceService) Stats(_ context.Context, file string) (*domain.FileStats, error) {
	if file == "missing.md" {
		return nil, domain.ErrNotFound
	}
	return &domain.FileStats{Chunks: 2, Characters: 120, Words: 20, AvgChunkSize: 60}, nil
}

func (m *MockSourceService) Chunks(_ context.Context, file string) ([]domain.ChunkRecord, error) {
	if file == "missing.md" {
		return nil, domain.ErrNotFound
	}
	return []domain.ChunkRecord{
		{File: file, ChunkIndex: 0, Content: "First chunk."},
		{File: file, ChunkIndex: 1, Content: "Second chunk."},
	}, nil
}

func (m *MockSourceService) Content(ctx context.Context, file string) (string, error) {
	if m.ContentFn != nil {
		return m.ContentFn(ctx, file)
	}
	return "# Garden\n\nSee [[compost]].\n", nil
}

// MockLinkService is a test double for driving.LinkService.
type MockLinkService struct {
	ResolveFn func(ctx context.Context, link string) (domain.Resolution, error)
}

func (m *MockLinkService) Extract(_ string) []string {
	return nil
}

func (m *MockLinkService) Resolve(ctx context.Context, link string) (domain.Resolution, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, link)
	}
	if link == "nowhere" {
		return domain.Resolution{Link: link, Strategy: domain.StrategyUnresolved}, nil
	}
	return domain.Resolution{Link: link, File: "notes/" + link + ".md", Strategy: domain.StrategyExactStem}, nil
}

func (m *MockLinkService) References(_ context.Context, file string) ([]domain.LinkReference, error) {
	return []domain.LinkReference{
		{
			Source:     file,
			Link:       "compost",
			Resolution: domain.Resolution{Link: "compost", File: "compost.md", Strategy: domain.StrategyExactStem},
		},
		{
			Source:     file,
			Link:       "nowhere",
			Resolution: domain.Resolution{Link: "nowhere", Strategy: domain.StrategyUnresolved},
		},
	}, nil
}

func (m *MockLinkService) Backlinks(_ context.Context, file string) ([]domain.LinkReference, error) {
	return []domain.LinkReference{
		{
			Source:     "daily/2024-03-01.md",
			Link:       domain.FileStem(file),
			Resolution: domain.Resolution{Link: domain.FileStem(file), File: file, Strategy: domain.StrategyExactStem},
			Context:    &domain.EntryContext{Timestamp: "09:30", Description: "Turned the heap"},
		},
	}, nil
}

func (m *MockLinkService) DailyEntries(_ context.Context, file string) ([]domain.DailyEntry, error) {
	if file == "empty.md" {
		return nil, nil
	}
	return []domain.DailyEntry{
		{
			EntryContext: domain.EntryContext{
				Timestamp:   "09:30",
				Description: "Turned the heap",
				Status:      "done",
				Area:        "garden",
			},
			Line:  3,
			Links: []string{"compost"},
		},
		{
			EntryContext: domain.EntryContext{Timestamp: "14:00", Description: "Read"},
			Line:         7,
		},
	}, nil
}

// MockSettingsService is a test double for driving.SettingsService.
type MockSettingsService struct {
	Settings      *domain.AppSettings
	ValidateErr   error
	EmbeddingErr  error
	LLMErr        error
	SaveErr       error
	saved         *domain.AppSettings
	saveCallCount int
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	if m.Settings == nil {
		s := domain.DefaultAppSettings()
		m.Settings = &s
	}
	cp := *m.Settings
	return &cp, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.saveCallCount++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saved = settings
	m.Settings = settings
	return nil
}

func (m *MockSettingsService) SetNotesRoot(root string) error {
	s, _ := m.Get()
	s.Notes.Root = root
	return m.Save(s)
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	s, _ := m.Get()
	s.Embedding.Provider, s.Embedding.Model, s.Embedding.APIKey = provider, model, apiKey
	return m.Save(s)
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	s, _ := m.Get()
	s.LLM.Provider, s.LLM.Model, s.LLM.APIKey = provider, model, apiKey
	return m.Save(s)
}

func (m *MockSettingsService) Validate() error {
	return m.ValidateErr
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *MockSettingsService) ValidateEmbeddingConfig(_ context.Context) error {
	return m.EmbeddingErr
}

func (m *MockSettingsService) ValidateLLMConfig(_ context.Context) error {
	return m.LLMErr
}

// testMocks groups the mocks installed by setupTestServices.
type testMocks struct {
	Corpus    *MockCorpusService
	Search    *MockSearchService
	Assistant *MockAssistantService
	Source    *MockSourceService
	Link      *MockLinkService
	Settings  *MockSettingsService
}

var currentMocks *testMocks

// setupTestServices installs fresh mocks and returns a cleanup that restores
// whatever services were set before.
func setupTestServices() func() {
	prev := Services{
		Corpus:    corpusService,
		Search:    searchService,
		Assistant: assistantService,
		Source:    sourceService,
		Link:      linkService,
		Settings:  settingsService,
		Close:     closer,
	}

	currentMocks = &testMocks{
		Corpus:    &MockCorpusService{},
		Search:    &MockSearchService{},
		Assistant: &MockAssistantService{},
		Source:    &MockSourceService{},
		Link:      &MockLinkService{},
		Settings:  &MockSettingsService{},
	}
	SetServices(&Services{
		Corpus:    currentMocks.Corpus,
		Search:    currentMocks.Search,
		Assistant: currentMocks.Assistant,
		Source:    currentMocks.Source,
		Link:      currentMocks.Link,
		Settings:  currentMocks.Settings,
	})

	return func() {
		SetServices(&prev)
		currentMocks = nil
	}
}

// clearServices removes every service and returns a restore func.
func clearServices() func() {
	prev := Services{
		Corpus:    corpusService,
		Search:    searchService,
		Assistant: assistantService,
		Source:    sourceService,
		Link:      linkService,
		Settings:  settingsService,
		Close:     closer,
	}
	SetServices(nil)
	return func() { SetServices(&prev) }
}

// executeCommand runs the root command with args and returns its output.
// Flags are reset afterwards so values do not leak between tests.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// captureOutput points cmd's output at a fresh buffer.
func captureOutput(cmd *cobra.Command) *bytes.Buffer {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return buf
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func testResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			ChunkRecord: domain.ChunkRecord{
				File:       "garden.md",
				Title:      "Garden",
				ChunkIndex: 0,
				Content:    "Tomatoes   need\nsun and water.",
			},
			Similarity: 0.91,
		},
		{
			ChunkRecord: domain.ChunkRecord{
				File:       "compost.md",
				Title:      "Compost",
				ChunkIndex: 2,
				Content:    "Turn the heap weekly.",
			},
			Similarity: 0.64,
		},
	}
}

func testSources() []domain.SourceSummary {
	return []domain.SourceSummary{
		{File: "daily/2024-03-01.md", Title: "2024-03-01", Kind: domain.SourceKindDaily, ChunkCount: 3},
		{File: "garden.md", Title: "Garden", Kind: domain.SourceKindMarkdown, ChunkCount: 2},
		{File: "todo.txt", Title: "todo", Kind: domain.SourceKindText, ChunkCount: 1},
	}
}

func testSnapshot() *domain.Snapshot {
	corpus := &domain.Corpus{
		Root: "/notes",
		Records: []domain.ChunkRecord{
			{File: "garden.md", Title: "Garden", ChunkIndex: 0, Content: "Tomatoes"},
			{File: "garden.md", Title: "Garden", ChunkIndex: 1, Content: "Beans"},
			{File: "compost.md", Title: "Compost", ChunkIndex: 0, Content: "Heap"},
		},
	}
	return &domain.Snapshot{ID: "snap-1", Corpus: corpus, LoadedAt: time.Now()}
}

func answered(question string) *domain.Answer {
	return &domain.Answer{
		Question: question,
		Outcome:  domain.OutcomeAnswered,
		Sources:  testResults(),
		Result:   domain.GenerationResult{Text: "Tomatoes need full sun.", Model: "test-model"},
	}
}
