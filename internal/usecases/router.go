package usecases

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"relampago-bridge/internal/entities"
	"relampago-bridge/internal/infrastructure"
	"relampago-bridge/internal/interfaces"
)

// Branded reply texts.
const (
	welcomeText = "*🚚 ¡BIENVENIDO A RELÁMPAGO EXPRESS! 🚚*\n\n" +
		"Tu servicio de entrega rápido y confiable.\n"

	locationAckText   = "📍 Tu ubicación ha sido recibida y enviada a nuestro sistema."
	locationErrorText = "❌ *RELÁMPAGO EXPRESS*: Ocurrió un error al procesar tu ubicación."

	confirmUsageText = "❌ *RELÁMPAGO EXPRESS*: Formato incorrecto. Uso: #confirmar [ID_PEDIDO]"
	rejectUsageText  = "❌ *RELÁMPAGO EXPRESS*: Formato incorrecto. Uso: #rechazar [ID_PEDIDO]"

	genericErrorText = "❌ *RELÁMPAGO EXPRESS*: Lo siento, ocurrió un error al procesar tu mensaje. " +
		"Por favor, intenta nuevamente o escribe *ayuda* para ver opciones disponibles."

	helpText = "*📌 AYUDA DE RELÁMPAGO EXPRESS*\n\n" +
		"- Para iniciar un nuevo pedido, escribe: *iniciar*\n" +
		"- Para reiniciar el proceso, escribe: *reiniciar*\n" +
		"- Para consultar un pedido existente, escribe: *consultar [ID_PEDIDO]*\n" +
		"- Para cancelar el proceso actual, escribe: *cancelar*\n" +
		"- Puedes compartir tu ubicación directamente para una entrega más precisa 📍\n\n" +
		"Si eres un repartidor:\n" +
		"- Para informar el precio de un pedido: *#precio [ID_PEDIDO] [MONTO]* o *#p [ID_PEDIDO] [MONTO]*\n" +
		"- Para marcar un pedido como entregado: *#completar [ID_PEDIDO]* o *#co [ID_PEDIDO]*\n" +
		"- Para ver tus pedidos activos: *#mispedidos*"
)

// Command vocabulary.
var (
	helpKeywords = []string{"ayuda", "help"}

	// Courier shorthand prefixes are detection-only: the message still falls
	// through to the generic passthrough, which owns the actual handling.
	priceCommandPrefixes    = []string{"#precio", "#costo", "#monto", "#p ", "#c ", "#m "}
	completeCommandPrefixes = []string{"#completar", "#entregado", "#co ", "#en "}
	activeOrderKeywords     = []string{"#mispedidos", "#pedidos"}
)

// Router classifies inbound chat events and dispatches them to the backend
// or to direct chat replies. One call handles one event to completion;
// classification, backend call and reply run in program order, suspending
// only at I/O.
type Router struct {
	backend   interfaces.Backend
	messenger interfaces.Messenger
	tracker   *infrastructure.ChatTracker
	log       *zerolog.Logger
}

func NewRouter(backend interfaces.Backend, messenger interfaces.Messenger, tracker *infrastructure.ChatTracker, logger *zerolog.Logger) *Router {
	routerLog := logger.With().Str("component", "Router").Logger()
	return &Router{
		backend:   backend,
		messenger: messenger,
		tracker:   tracker,
		log:       &routerLog,
	}
}

// HandleMessage is the entry point wired to the messaging client's message
// events. Errors never escape: anything the classification steps miss is
// converted into a single branded error reply here.
func (r *Router) HandleMessage(ctx context.Context, msg entities.Message) {
	if msg.IsGroup {
		return
	}

	if err := r.dispatch(ctx, msg); err != nil {
		r.log.Error().Err(err).Str("chat", msg.ChatID).Msg("message handling failed")
		r.reply(ctx, msg.ChatID, genericErrorText)
	}

	r.tracker.MarkUser(msg.ChatID)
}

// dispatch runs the classification steps in strict priority order. A returned
// error means no user-visible reply was produced yet; HandleMessage turns it
// into the generic error reply.
func (r *Router) dispatch(ctx context.Context, msg entities.Message) error {
	if r.tracker.NeedsWelcome(msg.ChatID) {
		r.reply(ctx, msg.ChatID, welcomeText)
	}

	if msg.Location != nil {
		r.handleLocation(ctx, msg)
		return nil
	}

	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "#confirmar") {
		return r.handleOrderAction(ctx, msg.ChatID, text, entities.OrderActionConfirm)
	}
	if strings.HasPrefix(text, "#rechazar") {
		return r.handleOrderAction(ctx, msg.ChatID, text, entities.OrderActionReject)
	}

	// Courier shorthand: log the detection, keep going. The backend owns the
	// real handling through the passthrough below.
	if hasAnyPrefix(text, priceCommandPrefixes) {
		r.log.Info().Str("chat", msg.ChatID).Str("text", text).Msg("courier price command detected")
	}
	if hasAnyPrefix(text, completeCommandPrefixes) {
		r.log.Info().Str("chat", msg.ChatID).Str("text", text).Msg("courier completion command detected")
	}
	if isAnyKeyword(text, activeOrderKeywords) {
		r.log.Info().Str("chat", msg.ChatID).Str("text", text).Msg("active orders request detected")
	}

	if isAnyKeyword(strings.ToLower(text), helpKeywords) {
		r.reply(ctx, msg.ChatID, helpText)
		return nil
	}

	return r.handlePassthrough(ctx, msg.ChatID, msg.Text)
}

// handleLocation forwards coordinates to the backend. On failure the user
// gets the location error reply and handling stops; a location-bearing event
// never reaches the text branches.
func (r *Router) handleLocation(ctx context.Context, msg entities.Message) {
	loc := msg.Location
	r.log.Info().Str("chat", msg.ChatID).
		Float64("lat", loc.Latitude).Float64("lon", loc.Longitude).
		Msg("location received")

	resp, err := r.backend.NotifyLocation(ctx, msg.ChatID, loc.Latitude, loc.Longitude)
	if err != nil {
		r.log.Error().Err(err).Str("chat", msg.ChatID).Msg("location notify failed")
		r.reply(ctx, msg.ChatID, locationErrorText)
		return
	}

	if resp.Answer != "" {
		r.reply(ctx, msg.ChatID, resp.Answer)
	} else {
		r.reply(ctx, msg.ChatID, locationAckText)
	}
}

// handleOrderAction parses "#confirmar <id>" / "#rechazar <id>" and relays
// the operator decision. A missing id never reaches the backend.
func (r *Router) handleOrderAction(ctx context.Context, chatID, text, action string) error {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		if action == entities.OrderActionConfirm {
			r.reply(ctx, chatID, confirmUsageText)
		} else {
			r.reply(ctx, chatID, rejectUsageText)
		}
		return nil
	}
	orderID := parts[1]

	r.log.Info().Str("chat", chatID).Str("order", orderID).Str("action", action).Msg("order decision")

	result, err := r.backend.ResolveOrderAction(ctx, orderID, action)
	if err != nil {
		r.reply(ctx, chatID, orderActionErrorText(action, orderID, err))
		return nil
	}
	if result.OK() {
		r.reply(ctx, chatID, orderActionSuccessText(action, orderID))
	} else {
		r.reply(ctx, chatID, orderActionProblemText(action, orderID))
	}
	return nil
}

// handlePassthrough forwards free text to the backend chat endpoint and
// relays the answer, if any.
func (r *Router) handlePassthrough(ctx context.Context, chatID, text string) error {
	resp, err := r.backend.NotifyChat(ctx, text, chatID)
	if err != nil {
		return err
	}
	if resp.Answer != "" {
		r.reply(ctx, chatID, resp.Answer)
	}
	return nil
}

// reply sends a chat message and records that the last message in the chat
// came from the bridge. Send failures are logged, not propagated: a failed
// reply must not trigger another reply.
func (r *Router) reply(ctx context.Context, chatID, text string) {
	if err := r.messenger.SendText(ctx, chatID, text); err != nil {
		r.log.Error().Err(err).Str("chat", chatID).Msg("reply send failed")
		return
	}
	r.tracker.MarkBridge(chatID)
}

func orderActionSuccessText(action, orderID string) string {
	if action == entities.OrderActionConfirm {
		return "✅ *RELÁMPAGO EXPRESS*: Pedido " + orderID + " confirmado exitosamente. El cliente ha sido notificado."
	}
	return "✅ *RELÁMPAGO EXPRESS*: Pedido " + orderID + " rechazado. El cliente ha sido notificado."
}

func orderActionProblemText(action, orderID string) string {
	verb := "confirmar"
	if action == entities.OrderActionReject {
		verb = "rechazar"
	}
	return "❌ *RELÁMPAGO EXPRESS*: Hubo un problema al " + verb + " el pedido " + orderID + "."
}

func orderActionErrorText(action, orderID string, err error) string {
	verb := "confirmar"
	if action == entities.OrderActionReject {
		verb = "rechazar"
	}
	return "❌ *RELÁMPAGO EXPRESS*: Error al " + verb + " el pedido " + orderID + ": " + err.Error()
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isAnyKeyword(s string, keywords []string) bool {
	for _, k := range keywords {
		if s == k {
			return true
		}
	}
	return false
}
