package infrastructure

import (
	"sync"
	"testing"
)

func TestChatTrackerFirstContact(t *testing.T) {
	tracker := NewChatTracker()
	const chat = "5551234567@c.us"

	if !tracker.NeedsWelcome(chat) {
		t.Fatal("unseen chat should need welcome")
	}

	tracker.MarkUser(chat)
	if tracker.NeedsWelcome(chat) {
		t.Fatal("chat with user as last speaker should not need welcome")
	}

	// Backend-pushed notification: bridge spoke last, so the next inbound
	// message is treated as first contact again.
	tracker.MarkBridge(chat)
	if !tracker.NeedsWelcome(chat) {
		t.Fatal("chat with bridge as last speaker should need welcome")
	}
}

func TestChatTrackerIndependentChats(t *testing.T) {
	tracker := NewChatTracker()
	tracker.MarkUser("111@c.us")

	if tracker.NeedsWelcome("111@c.us") {
		t.Fatal("marked chat should not need welcome")
	}
	if !tracker.NeedsWelcome("222@c.us") {
		t.Fatal("other chat should still need welcome")
	}
}

func TestChatTrackerConcurrentAccess(t *testing.T) {
	tracker := NewChatTracker()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tracker.MarkUser("a@c.us")
				tracker.MarkBridge("b@c.us")
				tracker.NeedsWelcome("a@c.us")
			}
		}()
	}
	wg.Wait()
}
