// Package driving defines interfaces that external actors (CLI, MCP, TUI) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Every operation works against the current corpus snapshot; none of them
// keep per-caller state. Conversation state travels in domain.Session.
//
// Implementations of these interfaces live in internal/core/services.
package driving
