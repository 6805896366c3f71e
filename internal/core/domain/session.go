package domain

import "time"

// Turn is one question and its rendered answer within a chat session.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Outcome  Outcome   `json:"outcome"`
	Sources  []string  `json:"sources,omitempty"`
	AskedAt  time.Time `json:"asked_at"`
}

// Session is caller-owned conversation state. The core never keeps it
// between calls; operations take a Session and return a new one.
type Session struct {
	ID           string `json:"id"`
	Turns        []Turn `json:"turns"`
	SelectedFile string `json:"selected_file,omitempty"`
	SelectedLink string `json:"selected_link,omitempty"`
}

// WithTurn returns a copy of the session with t appended.
func (s Session) WithTurn(t Turn) Session {
	turns := make([]Turn, len(s.Turns), len(s.Turns)+1)
	copy(turns, s.Turns)
	s.Turns = append(turns, t)
	return s
}

// WithSelection returns a copy of the session pointing at a file and link.
func (s Session) WithSelection(file, link string) Session {
	s.SelectedFile = file
	s.SelectedLink = link
	return s
}

// LastTurn returns the most recent turn, if any.
func (s Session) LastTurn() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}
