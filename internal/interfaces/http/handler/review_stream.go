package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/domain/shared"
	"github.com/stitchline/backend/internal/infrastructure/auth"
	"github.com/stitchline/backend/internal/infrastructure/notify"
	"github.com/stitchline/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// staleNotificationHorizon drops mirror deliveries older than this
const staleNotificationHorizon = 5 * time.Minute

// streamClient represents a connected SSE subscriber
type streamClient struct {
	ID     string
	UserID string
	Role   string
	Chan   chan streamMessage
	Done   chan struct{}
}

// streamMessage is one SSE frame queued for a client
type streamMessage struct {
	Event string
	Data  string
	ID    string
}

// ReviewStreamHandler streams review lifecycle notifications to
// connected clients over SSE. It subscribes to the in-process event bus
// for local changes and, when a bridge is attached, mirrors
// notifications across instances through Redis. Admin subscribers
// receive every notification; customers only receive their own.
type ReviewStreamHandler struct {
	BaseHandler
	bridge       *notify.RedisBridge
	logger       *zap.Logger
	clients      sync.Map // map[string]*streamClient
	ctx          context.Context
	cancel       context.CancelFunc
	heartbeat    time.Duration
	buffer       int
	maxClients   int
	writeTimeout time.Duration
	started      bool
	startMu      sync.Mutex
}

// ReviewStreamOption is a functional option for configuring the handler
type ReviewStreamOption func(*ReviewStreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) ReviewStreamOption {
	return func(h *ReviewStreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) ReviewStreamOption {
	return func(h *ReviewStreamHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithStreamBuffer sets the per-client message buffer size
func WithStreamBuffer(size int) ReviewStreamOption {
	return func(h *ReviewStreamHandler) {
		if size > 0 {
			h.buffer = size
		}
	}
}

// WithStreamMaxClients sets the maximum number of concurrent subscribers
func WithStreamMaxClients(max int) ReviewStreamOption {
	return func(h *ReviewStreamHandler) {
		h.maxClients = max
	}
}

// WithStreamWriteTimeout bounds each SSE frame write. Zero disables the
// deadline; the server's own write timeout stays unset so streams can
// outlive it.
func WithStreamWriteTimeout(timeout time.Duration) ReviewStreamOption {
	return func(h *ReviewStreamHandler) {
		if timeout > 0 {
			h.writeTimeout = timeout
		}
	}
}

// WithStreamBridge attaches a cross-instance notification bridge
func WithStreamBridge(bridge *notify.RedisBridge) ReviewStreamOption {
	return func(h *ReviewStreamHandler) {
		h.bridge = bridge
	}
}

// NewReviewStreamHandler creates a new review notification stream handler
func NewReviewStreamHandler(opts ...ReviewStreamOption) *ReviewStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &ReviewStreamHandler{
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		buffer:     16,
		maxClients: 10000,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// EventTypes implements shared.EventHandler
func (h *ReviewStreamHandler) EventTypes() []string {
	return []string{
		review.EventTypeReviewSubmitted,
		review.EventTypeReviewStatusChanged,
		review.EventTypePictureReplyUploaded,
		review.EventTypeReviewCustomerConfirm,
	}
}

// Handle implements shared.EventHandler. Local domain events are fanned
// out to connected clients and, when a bridge is attached, mirrored to
// the other instances.
func (h *ReviewStreamHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	n := notify.FromDomainEvent(event)
	h.deliver(n)

	if h.bridge != nil {
		if err := h.bridge.Publish(ctx, n); err != nil {
			h.logger.Warn("Failed to mirror review notification",
				zap.String("event_type", n.EventType),
				zap.Error(err))
		}
	}

	return nil
}

// Start begins the heartbeat loop and, when a bridge is attached, the
// cross-instance subscription
func (h *ReviewStreamHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.started {
		return fmt.Errorf("review stream handler already started")
	}

	go h.sendHeartbeats()

	if h.bridge != nil {
		go func() {
			err := h.bridge.Subscribe(h.ctx, h.handleRemote)
			if err != nil && h.ctx.Err() == nil {
				h.logger.Error("Review notification bridge subscription error", zap.Error(err))
			}
		}()
	}

	h.started = true
	h.logger.Info("Review stream handler started")
	return nil
}

// Stop disconnects all clients and stops background loops
func (h *ReviewStreamHandler) Stop() {
	h.cancel()

	h.clients.Range(func(key, value any) bool {
		if client, ok := value.(*streamClient); ok {
			close(client.Done)
		}
		return true
	})

	h.logger.Info("Review stream handler stopped")
}

// handleRemote delivers notifications mirrored from other instances.
// The bridge has already filtered this instance's own echoes.
func (h *ReviewStreamHandler) handleRemote(n notify.ReviewNotification) {
	if n.IsStale(staleNotificationHorizon) {
		h.logger.Debug("Dropping stale mirrored notification",
			zap.String("event_type", n.EventType))
		return
	}
	h.deliver(n)
}

// deliver fans a notification out to every subscriber allowed to see it
func (h *ReviewStreamHandler) deliver(n notify.ReviewNotification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("Failed to marshal review notification", zap.Error(err))
		return
	}

	msg := streamMessage{
		Event: n.EventType,
		Data:  string(data),
		ID:    n.EventID.String(),
	}

	h.clients.Range(func(key, value any) bool {
		client, ok := value.(*streamClient)
		if !ok {
			return true
		}

		if !h.allowed(client, n) {
			return true
		}

		select {
		case client.Chan <- msg:
		default:
			// Channel full, client is not keeping up
			h.logger.Warn("Client channel full, dropping notification",
				zap.String("client_id", client.ID))
		}
		return true
	})
}

// allowed reports whether a client may see the notification
func (h *ReviewStreamHandler) allowed(client *streamClient, n notify.ReviewNotification) bool {
	if client.Role == auth.RoleAdmin {
		return true
	}
	return n.CustomerID != uuid.Nil && n.CustomerID.String() == client.UserID
}

// sendHeartbeats periodically pings every client to keep connections alive
func (h *ReviewStreamHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			msg := streamMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			}
			h.clients.Range(func(_, value any) bool {
				if client, ok := value.(*streamClient); ok {
					select {
					case client.Chan <- msg:
					default:
					}
				}
				return true
			})
		}
	}
}

// Stream godoc
//
//	@Summary		Subscribe to review order notifications via SSE
//	@Description	Establishes a Server-Sent Events connection for real-time review order lifecycle notifications. Admins receive all orders; customers only their own.
//	@Tags			review-orders
//	@Produce		text/event-stream
//	@Success		200	{string}	string	"SSE stream"
//	@Failure		401	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/review-orders/stream [get]
func (h *ReviewStreamHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.ClientCount() >= h.maxClients {
		h.Error(c, http.StatusServiceUnavailable, "ERR_MAX_CONNECTIONS", "Maximum number of stream connections reached")
		return
	}

	userID := middleware.GetJWTUserID(c)
	if userID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := &streamClient{
		ID:     uuid.New().String(),
		UserID: userID,
		Role:   middleware.GetJWTRole(c),
		Chan:   make(chan streamMessage, h.buffer),
		Done:   make(chan struct{}),
	}

	h.clients.Store(client.ID, client)
	defer func() {
		close(client.Chan)
		h.clients.Delete(client.ID)
	}()

	h.logger.Info("Stream client connected",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.String("role", client.Role))

	// Per-frame deadline; a stalled reader fails its own write instead
	// of holding the goroutine forever
	rc := http.NewResponseController(c.Writer)
	deadline := func() {
		if h.writeTimeout > 0 {
			_ = rc.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
	}

	deadline()
	h.sendEvent(c.Writer, streamMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, client.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	reqCtx := c.Request.Context()

	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("Stream client disconnected",
				zap.String("client_id", client.ID))
			return
		case <-client.Done:
			return
		case <-h.ctx.Done():
			return
		case msg, ok := <-client.Chan:
			if !ok {
				return
			}
			deadline()
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

// sendEvent writes an SSE event to the response writer
func (h *ReviewStreamHandler) sendEvent(w io.Writer, msg streamMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// ClientCount returns the number of connected subscribers
func (h *ReviewStreamHandler) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// RegisterRoutes registers the stream route
func (h *ReviewStreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/review-orders/stream", h.Stream)
}
