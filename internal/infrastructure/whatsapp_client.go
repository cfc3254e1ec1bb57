package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"relampago-bridge/internal/entities"
	"relampago-bridge/internal/interfaces"
)

// WhatsAppClient wraps a whatsmeow session. The session database (the only
// durable state this process touches) belongs to whatsmeow; everything else
// here is relay glue: QR/lifecycle forwarding, message parsing, and the two
// send primitives the bridge needs.
type WhatsAppClient struct {
	client   *whatsmeow.Client
	notifier interfaces.LifecycleNotifier
	log      *zerolog.Logger

	qrLock sync.RWMutex
	qrCode string

	disconnects chan struct{}
}

func NewWhatsAppClient(storePath string, notifier interfaces.LifecycleNotifier, logger *zerolog.Logger) (*WhatsAppClient, error) {
	if dir := filepath.Dir(storePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create device store dir: %w", err)
		}
	}

	dbLog := waLog.Stdout("Database", "ERROR", true)
	container, err := sqlstore.New(context.Background(), "sqlite", "file:"+storePath+"?_pragma=foreign_keys(1)", dbLog)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}

	clientLog := waLog.Stdout("Client", "ERROR", true)
	waLogger := logger.With().Str("component", "WhatsAppClient").Logger()

	w := &WhatsAppClient{
		client:      whatsmeow.NewClient(deviceStore, clientLog),
		notifier:    notifier,
		log:         &waLogger,
		disconnects: make(chan struct{}, 1),
	}
	w.client.AddEventHandler(w.handleLifecycleEvent)
	return w, nil
}

// AddHandler registers an additional whatsmeow event handler. The router is
// attached through this during wiring.
func (w *WhatsAppClient) AddHandler(handler func(evt interface{})) {
	w.client.AddEventHandler(handler)
}

// Connect establishes the session. On a fresh device it pumps the QR channel
// so live viewers can complete pairing; on a stored device it resumes
// directly.
func (w *WhatsAppClient) Connect(ctx context.Context) error {
	if w.client.Store.ID == nil {
		qrChan, err := w.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		if err := w.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		go w.pumpQR(qrChan)
		return nil
	}

	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	w.log.Info().Msg("session resumed from stored device")
	return nil
}

func (w *WhatsAppClient) pumpQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			w.qrLock.Lock()
			w.qrCode = evt.Code
			w.qrLock.Unlock()
			w.log.Info().Msg("qr challenge issued")
			w.notifier.PublishQR(evt.Code)
		case "success":
			w.qrLock.Lock()
			w.qrCode = ""
			w.qrLock.Unlock()
			w.log.Info().Msg("pairing successful")
			w.notifier.PublishEvent("authenticated")
		default:
			w.log.Warn().Str("event", evt.Event).Msg("qr channel event")
		}
	}
}

// handleLifecycleEvent forwards session lifecycle signals to live viewers and
// arms the reconnect supervisor on transport drops.
func (w *WhatsAppClient) handleLifecycleEvent(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		w.log.Info().Msg("session ready")
		w.notifier.PublishEvent("ready")
	case *events.PairSuccess:
		w.notifier.PublishEvent("authenticated")
	case *events.Disconnected:
		w.log.Warn().Msg("session disconnected")
		w.notifier.PublishEvent("disconnected")
		select {
		case w.disconnects <- struct{}{}:
		default: // supervisor already armed
		}
	case *events.LoggedOut:
		w.log.Warn().Msg("device logged out; new pairing required")
		w.notifier.PublishEvent("disconnected")
	}
}

// Disconnects exposes the drop signal consumed by the SessionSupervisor.
func (w *WhatsAppClient) Disconnects() <-chan struct{} {
	return w.disconnects
}

// Reconnect tears the transport down and re-establishes it. Used by the
// supervisor after a disconnect signal.
func (w *WhatsAppClient) Reconnect(ctx context.Context) error {
	w.client.Disconnect()
	return w.Connect(ctx)
}

// QR returns the most recent pairing challenge, empty once paired.
func (w *WhatsAppClient) QR() string {
	w.qrLock.RLock()
	defer w.qrLock.RUnlock()
	return w.qrCode
}

// IsReady reports whether the session is connected and authenticated.
func (w *WhatsAppClient) IsReady() bool {
	return w.client.IsConnected() && w.client.Store.ID != nil
}

// IsLoggedIn reports whether a paired device is stored.
func (w *WhatsAppClient) IsLoggedIn() bool {
	return w.client.Store.ID != nil
}

func (w *WhatsAppClient) Disconnect() {
	w.client.Disconnect()
}

// SendText delivers a plain text message to a chat identifier.
func (w *WhatsAppClient) SendText(ctx context.Context, chatID, text string) error {
	jid, err := w.jidFor(chatID)
	if err != nil {
		return err
	}
	_, err = w.client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: &text,
	})
	return err
}

// SendLocation delivers a location payload to a chat identifier.
func (w *WhatsAppClient) SendLocation(ctx context.Context, chatID string, lat, lon float64, name string) error {
	jid, err := w.jidFor(chatID)
	if err != nil {
		return err
	}
	_, err = w.client.SendMessage(ctx, jid, &waProto.Message{
		LocationMessage: &waProto.LocationMessage{
			DegreesLatitude:  &lat,
			DegreesLongitude: &lon,
			Name:             &name,
		},
	})
	return err
}

// jidFor maps a "<digits>@c.us" chat identifier onto a whatsmeow user JID.
func (w *WhatsAppClient) jidFor(chatID string) (types.JID, error) {
	user := chatID
	if i := strings.IndexByte(user, '@'); i >= 0 {
		user = user[:i]
	}
	jid, err := types.ParseJID(user + "@" + types.DefaultUserServer)
	if err != nil {
		return types.JID{}, fmt.Errorf("invalid chat identifier %q: %w", chatID, err)
	}
	return jid, nil
}

// ParseMessage converts a whatsmeow message event into the domain shape the
// router consumes. Location extraction happens here so the router never
// touches protobuf types.
func (w *WhatsAppClient) ParseMessage(evt *events.Message) entities.Message {
	msg := entities.Message{
		ChatID:  evt.Info.Chat.User + entities.ChatSuffix,
		Sender:  evt.Info.Sender.User,
		IsGroup: evt.Info.IsGroup,
	}

	if text := evt.Message.GetConversation(); text != "" {
		msg.Text = text
	} else if ext := evt.Message.GetExtendedTextMessage(); ext != nil {
		msg.Text = ext.GetText()
	}

	if loc := evt.Message.GetLocationMessage(); loc != nil {
		msg.Location = &entities.Location{
			Latitude:  loc.GetDegreesLatitude(),
			Longitude: loc.GetDegreesLongitude(),
			Name:      loc.GetName(),
		}
	}

	return msg
}
