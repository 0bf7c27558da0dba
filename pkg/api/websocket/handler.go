package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/aescanero/hello-latency/internal/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait   = 5 * time.Second
	eventBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler streams greeting events to WebSocket clients
type Handler struct {
	eventBus ports.EventBus
	topic    string
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHandler creates a new WebSocket handler
func NewHandler(eventBus ports.EventBus, topic string, logger *zap.Logger) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		eventBus: eventBus,
		topic:    topic,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// HandleGreetingStream upgrades the connection and forwards greeting events.
// An optional request_id query parameter restricts the feed to one request.
func (h *Handler) HandleGreetingStream(c *gin.Context) {
	requestID := c.Query("request_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("request_id_filter", requestID),
		zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	events := make(chan ports.Event, eventBuffer)
	if err := h.eventBus.Subscribe(ctx, h.topic, h.forward(events)); err != nil {
		h.logger.Error("failed to subscribe to events",
			zap.String("topic", h.topic),
			zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "feed unavailable"),
			time.Now().Add(writeWait))
		return
	}

	// Reading is required to process control frames; a read error means the client left.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		case event := <-events:
			if requestID != "" && event.RequestID != requestID {
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Error("failed to write message", zap.Error(err))
				return
			}
		}
	}
}

// Shutdown closes every open stream
func (h *Handler) Shutdown() {
	h.cancel()
}

// forward returns a bus handler feeding ch without blocking the publisher
func (h *Handler) forward(ch chan<- ports.Event) ports.EventHandler {
	return func(ctx context.Context, event ports.Event) error {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}
}
