package session

import (
	"fmt"
	"strings"
)

const (
	// ContextExchanges is how many trailing exchanges are rendered into the
	// context window prepended to a new outbound request.
	ContextExchanges = 3

	// contextResponseBudget caps each rendered assistant response so a long
	// answer cannot crowd out the rest of the window.
	contextResponseBudget = 500
)

// ContextWindow renders the current session's most recent exchanges as
// alternating "User:"/"Assistant:" lines, oldest first. Returns "" when there
// is no current session or no history.
func (s *Store) ContextWindow() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[s.currentId]
	if !ok || len(session.History) == 0 {
		return ""
	}

	history := session.History
	if len(history) > ContextExchanges {
		history = history[len(history)-ContextExchanges:]
	}

	parts := make([]string, 0, len(history))
	for _, exchange := range history {
		response := exchange.Response
		if len(response) > contextResponseBudget {
			response = response[:contextResponseBudget] + "..."
		}
		parts = append(parts, fmt.Sprintf("User: %s\nAssistant: %s", exchange.Query, response))
	}
	return strings.Join(parts, "\n\n")
}

// ContextualMessage wraps a new query with the session's context window, for
// cross-session continuity hints. The external thread already holds the full
// history server-side, so only this summary is resent.
func (s *Store) ContextualMessage(message string) string {
	window := s.ContextWindow()
	if window == "" {
		return message
	}
	return fmt.Sprintf("Previous conversation context:\n%s\n\nCurrent query: %s", window, message)
}
