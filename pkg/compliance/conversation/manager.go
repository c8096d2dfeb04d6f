// Package conversation keeps the append-only chat transcript and the
// transient typing placeholder shown while a chat call is in flight.
package conversation

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"regubot-client/internal/constant"
)

// Turn is one message in the transcript.
type Turn struct {
	Id     string `json:"id"`
	Sender string `json:"sender"` // constant.ChatRoleUser | constant.ChatRoleBot
	Text   string `json:"text"`
	// IsError marks backend-reported and transport failures so they stay
	// visually distinguishable from a successful-but-fallback answer.
	IsError bool `json:"is_error"`
	// Typing marks the transient placeholder. Never survives a settled send.
	Typing bool `json:"typing"`
}

// Manager owns the ordered transcript
type Manager struct {
	mu    sync.Mutex
	turns []Turn
}

func NewManager() *Manager {
	return &Manager{}
}

// AppendUser appends a user turn and returns it.
func (m *Manager) AppendUser(text string) Turn {
	turn := Turn{Id: uuid.NewString(), Sender: constant.ChatRoleUser, Text: text}
	m.append(turn)
	return turn
}

// AppendBot appends a bot turn and returns it.
func (m *Manager) AppendBot(text string, isError bool) Turn {
	turn := Turn{Id: uuid.NewString(), Sender: constant.ChatRoleBot, Text: text, IsError: isError}
	m.append(turn)
	return turn
}

// AppendTyping appends a typing placeholder and returns its ephemeral token.
// Each send gets its own token, so overlapping sends never remove each
// other's placeholders.
func (m *Manager) AppendTyping() string {
	token := uuid.NewString()
	m.append(Turn{Id: token, Sender: constant.ChatRoleBot, Typing: true})
	return token
}

// ResolveTyping removes the placeholder identified by token and appends the
// real bot turn in one step, so no other append can interleave between the
// removal and the reply.
func (m *Manager) ResolveTyping(token, text string, isError bool) Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, turn := range m.turns {
		if turn.Typing && turn.Id == token {
			m.turns = append(m.turns[:i], m.turns[i+1:]...)
			break
		}
	}
	turn := Turn{Id: uuid.NewString(), Sender: constant.ChatRoleBot, Text: text, IsError: isError}
	m.turns = append(m.turns, turn)
	return turn
}

// RemoveTyping removes the placeholder without appending anything. Used when
// a send is abandoned before any reply can be shown.
func (m *Manager) RemoveTyping(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, turn := range m.turns {
		if turn.Typing && turn.Id == token {
			m.turns = append(m.turns[:i], m.turns[i+1:]...)
			return
		}
	}
}

// Turns returns a copy of the transcript in order.
func (m *Manager) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Clear drops the transcript. Called on file removal.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

func (m *Manager) append(turn Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
}

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// RenderHTML applies the restricted markdown-like transform used for bot
// text: bold delimiters and literal line breaks. Raw text is escaped first
// so backend-supplied markup can never become structural HTML.
func RenderHTML(text string) string {
	escaped := html.EscapeString(text)
	escaped = boldPattern.ReplaceAllString(escaped, "<strong>$1</strong>")
	return strings.ReplaceAll(escaped, "\n", "<br>")
}
