package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stitchline/backend/internal/domain/review"
	"github.com/stitchline/backend/internal/infrastructure/auth"
	"github.com/stitchline/backend/internal/infrastructure/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attachStreamClient(h *ReviewStreamHandler, userID uuid.UUID, role string) *streamClient {
	client := &streamClient{
		ID:     uuid.New().String(),
		UserID: userID.String(),
		Role:   role,
		Chan:   make(chan streamMessage, 8),
		Done:   make(chan struct{}),
	}
	h.clients.Store(client.ID, client)
	return client
}

func receiveMessage(t *testing.T, client *streamClient) streamMessage {
	t.Helper()
	select {
	case msg := <-client.Chan:
		return msg
	case <-time.After(time.Second):
		t.Fatal("expected a stream message")
		return streamMessage{}
	}
}

func assertNoMessage(t *testing.T, client *streamClient) {
	t.Helper()
	select {
	case msg := <-client.Chan:
		t.Fatalf("unexpected stream message: %s", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReviewStreamHandler_EventTypes(t *testing.T) {
	h := NewReviewStreamHandler()
	defer h.Stop()

	types := h.EventTypes()

	assert.Contains(t, types, review.EventTypeReviewSubmitted)
	assert.Contains(t, types, review.EventTypeReviewStatusChanged)
	assert.Contains(t, types, review.EventTypePictureReplyUploaded)
	assert.Contains(t, types, review.EventTypeReviewCustomerConfirm)
}

func TestReviewStreamHandler_Handle(t *testing.T) {
	t.Run("owner and admin receive, other customers do not", func(t *testing.T) {
		h := NewReviewStreamHandler()
		defer h.Stop()

		customerID := uuid.New()
		owner := attachStreamClient(h, customerID, auth.RoleCustomer)
		admin := attachStreamClient(h, uuid.New(), auth.RoleAdmin)
		stranger := attachStreamClient(h, uuid.New(), auth.RoleCustomer)

		order := testOrder(t, customerID)
		event := review.NewReviewSubmittedEvent(order)

		require.NoError(t, h.Handle(context.Background(), event))

		ownerMsg := receiveMessage(t, owner)
		assert.Equal(t, review.EventTypeReviewSubmitted, ownerMsg.Event)

		var n notify.ReviewNotification
		require.NoError(t, json.Unmarshal([]byte(ownerMsg.Data), &n))
		assert.Equal(t, order.ID, n.ReviewID)
		assert.Equal(t, customerID, n.CustomerID)
		assert.Equal(t, review.ReviewStatusPending.String(), n.Status)

		adminMsg := receiveMessage(t, admin)
		assert.Equal(t, review.EventTypeReviewSubmitted, adminMsg.Event)

		assertNoMessage(t, stranger)
	})

	t.Run("status change carries both statuses", func(t *testing.T) {
		h := NewReviewStreamHandler()
		defer h.Stop()

		customerID := uuid.New()
		owner := attachStreamClient(h, customerID, auth.RoleCustomer)

		order := testOrder(t, customerID)
		_, err := order.Review("approved", "")
		require.NoError(t, err)

		for _, event := range order.GetDomainEvents() {
			require.NoError(t, h.Handle(context.Background(), event))
		}

		msg := receiveMessage(t, owner)
		var n notify.ReviewNotification
		require.NoError(t, json.Unmarshal([]byte(msg.Data), &n))
		assert.Equal(t, review.ReviewStatusPending.String(), n.FromStatus)
		assert.Equal(t, review.ReviewStatusPendingPayment.String(), n.Status)
	})

	t.Run("slow client does not block delivery", func(t *testing.T) {
		h := NewReviewStreamHandler()
		defer h.Stop()

		customerID := uuid.New()
		slow := &streamClient{
			ID:     uuid.New().String(),
			UserID: customerID.String(),
			Role:   auth.RoleCustomer,
			Chan:   make(chan streamMessage), // unbuffered, never read
			Done:   make(chan struct{}),
		}
		h.clients.Store(slow.ID, slow)
		healthy := attachStreamClient(h, customerID, auth.RoleCustomer)

		order := testOrder(t, customerID)
		require.NoError(t, h.Handle(context.Background(), review.NewReviewSubmittedEvent(order)))

		receiveMessage(t, healthy)
	})
}

func TestReviewStreamHandler_RemoteNotifications(t *testing.T) {
	t.Run("fresh remote notification is delivered", func(t *testing.T) {
		h := NewReviewStreamHandler()
		defer h.Stop()

		customerID := uuid.New()
		owner := attachStreamClient(h, customerID, auth.RoleCustomer)

		h.handleRemote(notify.ReviewNotification{
			EventID:    uuid.New(),
			EventType:  review.EventTypeReviewStatusChanged,
			ReviewID:   uuid.New(),
			CustomerID: customerID,
			Status:     review.ReviewStatusRejected.String(),
			Timestamp:  time.Now().UnixNano(),
		})

		msg := receiveMessage(t, owner)
		assert.Equal(t, review.EventTypeReviewStatusChanged, msg.Event)
	})

	t.Run("stale remote notification is dropped", func(t *testing.T) {
		h := NewReviewStreamHandler()
		defer h.Stop()

		admin := attachStreamClient(h, uuid.New(), auth.RoleAdmin)

		h.handleRemote(notify.ReviewNotification{
			EventID:   uuid.New(),
			EventType: review.EventTypeReviewStatusChanged,
			Timestamp: time.Now().Add(-time.Hour).UnixNano(),
		})

		assertNoMessage(t, admin)
	})
}

func TestReviewStreamHandler_Stream(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewReviewStreamHandler(WithStreamWriteTimeout(time.Second))
	defer h.Stop()
	assert.Equal(t, time.Second, h.writeTimeout)

	customerID := uuid.New()
	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(withIdentity(customerID, "Amara Okafor", auth.RoleCustomer))
	h.RegisterRoutes(api)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/review-orders/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	served := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(served)
	}()

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	order := testOrder(t, customerID)
	require.NoError(t, h.Handle(context.Background(), review.NewReviewSubmittedEvent(order)))

	// Wait for the client's queue to drain so the frame has been written
	require.Eventually(t, func() bool {
		drained := true
		h.clients.Range(func(_, value any) bool {
			if client, ok := value.(*streamClient); ok {
				drained = len(client.Chan) == 0
			}
			return true
		})
		return drained
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not return after disconnect")
	}

	body := w.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: "+review.EventTypeReviewSubmitted)
	assert.Contains(t, body, order.ID.String())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Zero(t, h.ClientCount())
}

func TestReviewStreamHandler_ClientCount(t *testing.T) {
	h := NewReviewStreamHandler()
	defer h.Stop()

	assert.Zero(t, h.ClientCount())

	attachStreamClient(h, uuid.New(), auth.RoleCustomer)
	attachStreamClient(h, uuid.New(), auth.RoleAdmin)

	assert.Equal(t, 2, h.ClientCount())
}
