package ws

import (
	"net/http"
	"time"

	"advising_queue/internal/constant"
	"advising_queue/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// Client представляет одно WebSocket-подключение, привязанное к одной подписке.
type Client struct {
	conn   *websocket.Conn
	sub    *Subscription
	logger *logrus.Entry
}

// readPump только отслеживает разрыв соединения, входящие сообщения не обрабатываются.
func (c *Client) readPump() {
	defer func() {
		c.sub.Close()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Debug("websocket closed unexpectedly")
			}
			return
		}
	}
}

// writePump первым отправляет hello, чтобы новый или переподключившийся клиент сразу перечитал состояние.
func (c *Client) writePump(hello notify.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(hello); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-c.sub.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрыт.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			// ping для поддержания соединения
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Апгрейдер с разрешением всех источников, CORS решается на уровне gin.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Hub) serve(c *gin.Context, topic, queueID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал HTTP-ошибку
		h.logger.WithError(err).WithField("topic", topic).Debug("websocket upgrade failed")
		return
	}

	sub, err := h.Subscribe(c.Request.Context(), topic)
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub unavailable"))
		conn.Close()
		return
	}

	client := &Client{
		conn:   conn,
		sub:    sub,
		logger: h.logger.WithField("topic", topic),
	}
	go client.writePump(notify.Refresh(queueID, "subscribed"))
	client.readPump()
}

// QueueWebSocketHandler godoc
// @Summary		Queue change stream
// @Description	Websocket carrying refresh signals for one queue. The first message is always a refresh.
// @Tags			queue
// @Param			queueId	path	string	true	"Queue id"
// @Router			/api/queue/{queueId}/ws [get]
func (h *Hub) QueueWebSocketHandler(c *gin.Context) {
	queueID := c.Param("queueId")
	h.serve(c, constant.QueueTopic(queueID), queueID)
}

// AdminWebSocketHandler godoc
// @Summary		Admin change stream
// @Description	Websocket carrying refresh signals for every queue
// @Tags			admin
// @Security		BearerAuth
// @Router			/api/admin/ws [get]
func (h *Hub) AdminWebSocketHandler(c *gin.Context) {
	h.serve(c, constant.AdminTopic, "")
}
