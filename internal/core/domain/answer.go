package domain

import "fmt"

// User-visible fallback messages.
const (
	MessageNoNotes      = "No notes available to search."
	MessageNoRelevant   = "No relevant information found for '%s' in your notes."
	MessageChatFallback = "I couldn't find any relevant information in your notes to answer this question."
)

// Outcome tags how a question or summary request ended.
type Outcome string

// Outcomes.
const (
	// OutcomeAnswered means the generator produced text.
	OutcomeAnswered Outcome = "answered"

	// OutcomeNoNotes means the corpus was empty; nothing was encoded or generated.
	OutcomeNoNotes Outcome = "no_notes"

	// OutcomeNoRelevant means no chunk cleared the similarity floor.
	OutcomeNoRelevant Outcome = "no_relevant"

	// OutcomeGenerationFailed means the generator call failed.
	OutcomeGenerationFailed Outcome = "generation_failed"
)

// GenerationResult is either generated text or the reason generation failed.
type GenerationResult struct {
	Text string

	// Model is the generator that was asked.
	Model string

	// Err is set when generation failed. Text is empty in that case.
	Err error
}

// OK reports whether generation succeeded.
func (g GenerationResult) OK() bool {
	return g.Err == nil
}

// Answer is the result of asking a question against the notes.
type Answer struct {
	Question string         `json:"question"`
	Outcome  Outcome        `json:"outcome"`
	Sources  []SearchResult `json:"sources"`

	// Result is only meaningful when generation was attempted.
	Result GenerationResult `json:"-"`
}

// Text renders the answer for display. Failures become readable strings.
func (a *Answer) Text() string {
	switch a.Outcome {
	case OutcomeNoNotes:
		return MessageNoNotes
	case OutcomeNoRelevant:
		return MessageChatFallback
	case OutcomeGenerationFailed:
		return fmt.Sprintf("Error querying %s: %v", a.Result.Model, a.Result.Err)
	default:
		return a.Result.Text
	}
}

// Summary is the result of a search-and-summarise request.
type Summary struct {
	Query   string         `json:"query"`
	Outcome Outcome        `json:"outcome"`
	Sources []SearchResult `json:"sources"`

	Result GenerationResult `json:"-"`
}

// Text renders the summary for display.
func (s *Summary) Text() string {
	switch s.Outcome {
	case OutcomeNoNotes:
		return MessageNoNotes
	case OutcomeNoRelevant:
		return fmt.Sprintf(MessageNoRelevant, s.Query)
	case OutcomeGenerationFailed:
		return fmt.Sprintf("Error generating summary: %v", s.Result.Err)
	default:
		return s.Result.Text
	}
}
