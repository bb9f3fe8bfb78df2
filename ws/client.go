package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"bloodlink/auth"
	"bloodlink/chat"
	"bloodlink/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 8192
	dispatchWait   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests to authenticated socket sessions and
// dispatches client events into the same services the REST layer uses.
type Handler struct {
	gw       *Gateway
	verifier auth.TokenVerifier
	pipeline *chat.Pipeline
	receipts *chat.Receipts
	typing   *chat.Typing
}

func NewHandler(gw *Gateway, verifier auth.TokenVerifier, pipeline *chat.Pipeline, receipts *chat.Receipts, typing *chat.Typing) *Handler {
	return &Handler{
		gw:       gw,
		verifier: verifier,
		pipeline: pipeline,
		receipts: receipts,
		typing:   typing,
	}
}

// Serve authenticates the handshake and starts the connection pumps. A
// missing or invalid token aborts before the upgrade.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		log.Printf("WS: handshake rejected: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS: upgrade failed: %v", err)
		return
	}

	session := h.gw.Connect(claims.UserID, claims.Role)
	c := &client{conn: conn, session: session, h: h}

	h.gw.Emit(session.ID, models.EventConnected, models.ConnectedEvent{
		UserID: claims.UserID,
		Room:   models.UserRoom(claims.UserID),
	})

	go c.writePump()
	go c.readPump()
}

type client struct {
	conn    *websocket.Conn
	session *Session
	h       *Handler
}

func (c *client) readPump() {
	defer func() {
		c.h.gw.Disconnect(c.session.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS: read error: %v", err)
			}
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("malformed event")
			continue
		}

		// A failed event must not crash or de-session the connection; the
		// error goes back to this connection only.
		if err := c.dispatch(env); err != nil {
			c.sendError(errMessage(err))
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.session.Outbox():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) dispatch(env models.Envelope) error {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchWait)
	defer cancel()

	switch env.Type {
	case models.EventJoin:
		var p models.JoinPayload
		if err := unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return c.h.gw.Join(ctx, c.session.ID, p.ConversationID)

	case models.EventLeave:
		var p models.JoinPayload
		if err := unmarshal(env.Payload, &p); err != nil {
			return err
		}
		c.h.gw.Leave(c.session.ID, p.ConversationID)
		return nil

	case models.EventMessage:
		var p models.SendPayload
		if err := unmarshal(env.Payload, &p); err != nil {
			return err
		}
		_, err := c.h.pipeline.Send(ctx, chat.SendInput{
			SenderID:        c.session.UserID,
			ConversationID:  p.ConversationID,
			ReceiverID:      p.ReceiverID,
			Content:         p.Content,
			Type:            p.Type,
			RelatedEntityID: p.RelatedEntityID,
		})
		return err

	case models.EventDeleteMessage:
		var p models.DeletePayload
		if err := unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return c.h.pipeline.Delete(ctx, c.session.UserID, p.MessageID)

	case models.EventTyping:
		var p models.TypingPayload
		if err := unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return c.h.typing.Start(c.session.ID, c.session.UserID, p.ConversationID)

	case models.EventStopTyping:
		var p models.TypingPayload
		if err := unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return c.h.typing.Stop(c.session.ID, c.session.UserID, p.ConversationID)

	case models.EventMarkRead:
		var p models.MarkReadPayload
		if err := unmarshal(env.Payload, &p); err != nil {
			return err
		}
		_, err := c.h.receipts.MarkRead(ctx, c.session.UserID, p.ConversationID, c.session.ID)
		return err

	case models.EventPing:
		c.h.gw.Emit(c.session.ID, models.EventPong, map[string]int64{"time": time.Now().Unix()})
		return nil

	default:
		return chat.ErrValidation
	}
}

func (c *client) sendError(message string) {
	c.h.gw.Emit(c.session.ID, models.EventError, models.ErrorEvent{Message: message})
}

func unmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return chat.ErrValidation
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return chat.ErrValidation
	}
	return nil
}

// errMessage keeps store internals out of what goes back over the wire.
func errMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrValidation):
		return err.Error()
	case errors.Is(err, chat.ErrForbidden):
		return "forbidden"
	case errors.Is(err, chat.ErrNotFound):
		return "not found"
	case errors.Is(err, chat.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, chat.ErrTransientStore):
		return "temporary failure, please retry"
	default:
		return "internal error"
	}
}
