package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

func attachViewer(hub *Hub) *viewer {
	v := &viewer{send: make(chan []byte, 16)}
	hub.register <- v
	return v
}

func receiveFrame(t *testing.T, v *viewer) lifecycleFrame {
	t.Helper()
	select {
	case data := <-v.send:
		var frame lifecycleFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("bad frame %s: %v", data, err)
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return lifecycleFrame{}
	}
}

func expectNoFrame(t *testing.T, v *viewer) {
	t.Helper()
	select {
	case data := <-v.send:
		t.Fatalf("unexpected frame: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastsQR(t *testing.T) {
	hub := newRunningHub(t)
	v := attachViewer(hub)

	hub.PublishQR("challenge-1")

	frame := receiveFrame(t, v)
	if frame.Event != "qr" || frame.Data != "challenge-1" {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestHubBroadcastsLifecycleEvents(t *testing.T) {
	hub := newRunningHub(t)
	v := attachViewer(hub)

	for _, event := range []string{"authenticated", "ready", "disconnected"} {
		hub.PublishEvent(event)
		frame := receiveFrame(t, v)
		if frame.Event != event || frame.Data != "" {
			t.Fatalf("frame = %+v, want event %q", frame, event)
		}
	}
}

// A viewer that connects after the QR was issued still receives it.
func TestHubReplaysLastQRToLateViewer(t *testing.T) {
	hub := newRunningHub(t)
	hub.PublishQR("challenge-2")

	// Give the broadcast (to nobody) time to drain so the register path is
	// what delivers the frame.
	time.Sleep(10 * time.Millisecond)

	v := attachViewer(hub)
	frame := receiveFrame(t, v)
	if frame.Event != "qr" || frame.Data != "challenge-2" {
		t.Fatalf("frame = %+v", frame)
	}
}

// Once authenticated, stale challenges must not be replayed.
func TestHubClearsQRAfterAuthentication(t *testing.T) {
	hub := newRunningHub(t)
	hub.PublishQR("challenge-3")
	hub.PublishEvent("authenticated")
	time.Sleep(10 * time.Millisecond)

	v := attachViewer(hub)
	expectNoFrame(t, v)
}

func TestHubMultipleViewers(t *testing.T) {
	hub := newRunningHub(t)
	v1 := attachViewer(hub)
	v2 := attachViewer(hub)

	hub.PublishEvent("ready")

	if frame := receiveFrame(t, v1); frame.Event != "ready" {
		t.Fatalf("v1 frame = %+v", frame)
	}
	if frame := receiveFrame(t, v2); frame.Event != "ready" {
		t.Fatalf("v2 frame = %+v", frame)
	}
}
