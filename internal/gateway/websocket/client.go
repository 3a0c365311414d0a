package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/service/dispatch"
	"github.com/Olamide1/loopline/pkg/constants"
	"github.com/Olamide1/loopline/pkg/errorx"
)

var (
	// ErrSessionClosed 连接已关闭
	ErrSessionClosed = errorx.New(errorx.CodeTransport, "连接已关闭")
	// ErrSendBufferFull 下行缓冲已满，该帧被丢弃
	ErrSendBufferFull = errorx.New(errorx.CodeTransport, "下行缓冲已满")
)

const (
	writeWait  = constants.WS_WRITE_WAIT_SECONDS * time.Second
	pongWait   = constants.WS_PONG_WAIT_SECONDS * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Client 一条 WebSocket 连接，实现 room.Session
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn *websocket.Conn, userID string, buffer int) *Client {
	if buffer <= 0 {
		buffer = constants.SEND_BUFFER_SIZE
	}
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Send 非阻塞投递，缓冲满时直接丢弃
func (c *Client) Send(frame []byte) error {
	select {
	case <-c.closed:
		return ErrSessionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// sendEvent 给本连接回一帧
func (c *Client) sendEvent(event string, payload any) {
	frame, err := json.Marshal(dispatch.Envelope{Event: event, Data: payload})
	if err != nil {
		zap.L().Error("序列化回执失败", zap.String("event", event), zap.Error(err))
		return
	}
	if err := c.Send(frame); err != nil {
		zap.L().Debug("回执丢弃", zap.String("session", c.id), zap.Error(err))
	}
}

// close 幂等关闭，写协程随之退出，读协程因连接关闭返回
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// writePump 把 send 缓冲写到连接，并定时 ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				zap.L().Debug("ws write", zap.String("session", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
