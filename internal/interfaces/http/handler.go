package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"relampago-bridge/internal/entities"
	"relampago-bridge/internal/infrastructure"
	"relampago-bridge/internal/interfaces"
	"relampago-bridge/internal/usecases"
)

const serviceName = "Relámpago Express WhatsApp Bridge"

// SessionStatus is the read-only view of the messaging session the HTTP
// surface needs.
type SessionStatus interface {
	QR() string
	IsReady() bool
	IsLoggedIn() bool
}

type Handler struct {
	messenger interfaces.Messenger
	session   SessionStatus
	tracker   *infrastructure.ChatTracker
	hub       *Hub
	log       *zerolog.Logger
}

func NewHandler(messenger interfaces.Messenger, session SessionStatus, tracker *infrastructure.ChatTracker, hub *Hub, logger *zerolog.Logger) *Handler {
	handlerLog := logger.With().Str("component", "HTTPHandler").Logger()
	return &Handler{
		messenger: messenger,
		session:   session,
		tracker:   tracker,
		hub:       hub,
		log:       &handlerLog,
	}
}

func SetupRoutes(r *gin.Engine, h *Handler, m *Middleware) {
	r.Use(Recovery(h.log))
	r.Use(SecurityHeaders())
	r.Use(m.CORSMiddleware())
	r.Use(RequestSizeLimiter(m.maxBodyBytes))

	r.GET("/", h.StatusPage)
	r.GET("/status", h.Status)
	r.GET("/qr.png", h.QRCode)
	r.GET("/ws", h.LiveViewer)

	fwd := r.Group("/")
	fwd.Use(m.RateLimitPerClient())
	{
		fwd.POST("/forward-message", h.ForwardMessage)
		fwd.POST("/forward-location", h.ForwardLocation)
	}
}

// StatusPage serves the live QR viewer for operators.
func (h *Handler) StatusPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(statusPage))
}

// Status reports bridge health.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "active",
		"service":   serviceName,
		"ready":     h.session.IsReady(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// QRCode renders the current pairing challenge as a PNG. Operators without a
// websocket-capable client can poll this instead of the live viewer.
func (h *Handler) QRCode(c *gin.Context) {
	code := h.session.QR()
	if code == "" {
		if h.session.IsLoggedIn() {
			c.String(http.StatusOK, "Already paired")
			return
		}
		c.String(http.StatusAccepted, "QR code not yet available. Please wait...")
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// LiveViewer upgrades into the lifecycle-event hub.
func (h *Handler) LiveViewer(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}

type forwardMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

func (r *forwardMessageRequest) validate() error {
	if r.To == "" || r.Message == "" {
		return &entities.ValidationError{Msg: "Se requiere número de teléfono y mensaje"}
	}
	return nil
}

// ForwardMessage relays a backend-pushed text to a chat recipient.
func (h *Handler) ForwardMessage(c *gin.Context) {
	var req forwardMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Cuerpo de la solicitud inválido",
		})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	chatID := usecases.ChatID(req.To)
	h.log.Info().Str("chat", chatID).Str("order", req.OrderID).Msg("forwarding message")

	if err := h.messenger.SendText(c.Request.Context(), chatID, req.Message); err != nil {
		h.log.Error().Err(err).Str("chat", chatID).Msg("message forward failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Error al enviar mensaje",
			"error":   err.Error(),
		})
		return
	}
	h.tracker.MarkBridge(chatID)

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Mensaje enviado correctamente",
		"order_id": orderIDOrNil(req.OrderID),
	})
}

type forwardLocationRequest struct {
	To string `json:"to"`
	// Pointers distinguish "absent" from latitude/longitude of zero, which
	// is a valid coordinate and must be accepted.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	OrderID   string   `json:"order_id"`
}

func (r *forwardLocationRequest) validate() error {
	if r.To == "" || r.Latitude == nil || r.Longitude == nil {
		return &entities.ValidationError{Msg: "Se requiere número de teléfono y coordenadas de ubicación"}
	}
	return nil
}

// ForwardLocation relays a backend-pushed location to a chat recipient.
func (h *Handler) ForwardLocation(c *gin.Context) {
	var req forwardLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Cuerpo de la solicitud inválido",
		})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	chatID := usecases.ChatID(req.To)
	h.log.Info().Str("chat", chatID).Str("order", req.OrderID).
		Float64("lat", *req.Latitude).Float64("lon", *req.Longitude).
		Msg("forwarding location")

	err := h.messenger.SendLocation(c.Request.Context(), chatID, *req.Latitude, *req.Longitude, "Ubicación del cliente")
	if err != nil {
		h.log.Error().Err(err).Str("chat", chatID).Msg("location forward failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Error al enviar ubicación",
			"error":   err.Error(),
		})
		return
	}
	h.tracker.MarkBridge(chatID)

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Ubicación enviada correctamente",
		"order_id": orderIDOrNil(req.OrderID),
	})
}

func orderIDOrNil(orderID string) any {
	if orderID == "" {
		return nil
	}
	return orderID
}
