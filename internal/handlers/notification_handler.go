package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/tradeskills/tradeskills-backend/internal/realtime"
	"github.com/tradeskills/tradeskills-backend/internal/services/notification"
)

type NotificationHandler struct {
	Hub           *realtime.Hub
	Notifications *notification.Service
}

// List returns the caller's stored notifications, newest first. Filters:
// ?is_read=, ?type=, ?limit=, ?offset=.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	filter := notification.Filter{Type: c.Query("type")}
	if raw := c.Query("is_read"); raw != "" {
		v := raw == "true"
		filter.IsRead = &v
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	notifications, err := h.Notifications.List(userID, filter)
	if err != nil {
		return fail(c, err)
	}
	unread, err := h.Notifications.UnreadCount(userID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"notifications": notifications,
			"unread_count":  unread,
		},
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid notification id")
	}

	if err := h.Notifications.MarkRead(userID, notificationID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notification marked as read",
	})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	updated, err := h.Notifications.MarkAllRead(userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "All notifications marked as read",
		"data":    fiber.Map{"updated": updated},
	})
}

// WebSocketHandler keeps a notification stream open for a user. Session
// lifecycle and wallet events arrive as JSON frames.
func (h *NotificationHandler) WebSocketHandler(c *websocket.Conn) {
	// identity was validated by the upgrade middleware
	userID, _ := c.Locals("userId").(string)
	if userID == "" {
		log.Println("WebSocket: missing identity on upgrade")
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		log.Println("WebSocket: invalid user id:", userID, "error:", err)
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected\n", userID)

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected\n", userID)
	}()

	// hub -> client
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// client -> server, only pings are expected
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			log.Printf("WebSocket read error for user %s: %v\n", userID, err)
			break
		}

		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
