package driven

// PromptStore provides the instruction templates used to assemble prompts.
type PromptStore interface {
	// Load returns the template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached templates so edits on disk are picked up.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer wraps retrieved sources into a grounded question.
	// Placeholders: %s (question), %s (sources block).
	PromptAnswer = "answer"

	// PromptSummary asks for a short overview of retrieved sources.
	// Placeholders: %s (query), %s (sources block).
	PromptSummary = "summary"

	// PromptChatSystem is the system message for conversational turns.
	// No placeholders.
	PromptChatSystem = "chat_system"
)

// PromptStoreAware is implemented by services whose prompts can be customised
// after construction.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
