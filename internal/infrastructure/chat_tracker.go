package infrastructure

import "sync"

type direction int8

const (
	directionUser direction = iota + 1
	directionBridge
)

// ChatTracker remembers, per chat, who spoke last during this process's
// lifetime. The router uses it for first-contact detection: a chat we have
// never seen, or one whose most recent message came from the bridge itself,
// gets a welcome message. State is in-memory only.
type ChatTracker struct {
	mu   sync.RWMutex
	last map[string]direction
}

func NewChatTracker() *ChatTracker {
	return &ChatTracker{
		last: make(map[string]direction),
	}
}

// NeedsWelcome reports whether the next inbound message from chatID should
// be preceded by the welcome message.
func (t *ChatTracker) NeedsWelcome(chatID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	d, seen := t.last[chatID]
	return !seen || d == directionBridge
}

// MarkUser records that the most recent message in the chat came from the
// remote user.
func (t *ChatTracker) MarkUser(chatID string) {
	t.mu.Lock()
	t.last[chatID] = directionUser
	t.mu.Unlock()
}

// MarkBridge records that the most recent message in the chat was sent by
// this bridge (a reply or a backend-pushed notification).
func (t *ChatTracker) MarkBridge(chatID string) {
	t.mu.Lock()
	t.last[chatID] = directionBridge
	t.mu.Unlock()
}
