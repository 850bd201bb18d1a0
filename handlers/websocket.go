package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxFrameLength = 16 << 10
)

// wsChannel adapts a WebSocket connection to broker.Channel. Writes are
// serialised and carry a deadline so a stalled client cannot block a sender
// forever.
type wsChannel struct {
	id   string
	conn *websocket.Conn

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{id: uuid.NewString(), conn: conn}
}

func (w *wsChannel) Send(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteJSON(v)
}

func (w *wsChannel) Ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close sends a close frame and closes the socket. Safe to call repeatedly.
func (w *wsChannel) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		w.mu.Unlock()
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

// HandleWebSocket upgrades an authenticated request to the chat socket.
// Browsers cannot set headers on WebSocket requests, so the access token
// comes in the token query parameter.
func (a *API) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	user, ok := a.authenticate(c, token)
	if !ok {
		return
	}

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c.Set(userKey, user)

	ch := newWSChannel(conn)
	log := a.logger.With(zap.Int64("user_id", user.ID), zap.String("conn_id", ch.id))
	log.Debug("websocket connected")

	a.chat.Connect(user, ch)
	defer func() {
		a.chat.Disconnect(user.ID, ch)
		_ = ch.Close()
		log.Debug("websocket closed")
	}()

	conn.SetReadLimit(maxFrameLength)
	_ = conn.SetReadDeadline(time.Now().Add(a.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(a.opts.PongWait))
	})

	ctx := c.Request.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(a.opts.PongWait))
		a.chat.HandleInbound(ctx, user, data)
	}
}
