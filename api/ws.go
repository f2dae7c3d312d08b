package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/medsync-org/medsync/errors"
	"github.com/medsync-org/medsync/signaling"
)

var upgrader = websocket.Upgrader{
	// Browser portals are served from separate origins; token auth already
	// ran before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SignalingSocket bridges a browser peer to the signaling relay. Every relay
// message for the session is forwarded as-is; peers drop their own messages
// by comparing the from field.
func (h *Handler) SignalingSocket(c echo.Context) error {
	callId := c.Param("callId")
	peerId := c.QueryParam("peerId")
	if peerId == "" {
		return errors.BadRequest
	}
	if _, ok := h.calls.Get(callId); !ok {
		return errors.NotFound
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	messages, cancel, err := h.relay.Subscribe(ctx, callId)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer cancel()

	go func() {
		for message := range messages {
			if err := conn.WriteJSON(message); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		message := signaling.Message{}
		if err := conn.ReadJSON(&message); err != nil {
			break
		}
		// The socket owns the sender identity, not the payload.
		message.From = peerId
		if err := h.relay.Publish(ctx, callId, message); err != nil {
			h.logger.Errorw("error relaying signaling message",
				"callId", callId, "peerId", peerId, "error", err)
			break
		}
	}

	cancel()
	return conn.Close()
}
