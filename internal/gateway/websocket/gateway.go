// Package websocket 实时推送的传输层
// 每条连接一个读协程、一个写协程；会话的用户 ID 只在握手时从已验证的 token 绑定
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/dispatch"
	"github.com/Olamide1/loopline/internal/service/room"
	"github.com/Olamide1/loopline/pkg/constants"
	"github.com/Olamide1/loopline/pkg/errorx"
)

// 客户端上行命令
const (
	CmdJoinWorkspace  = "join_workspace"
	CmdLeaveWorkspace = "leave_workspace"
	CmdJoinChannel    = "join_channel"
	CmdLeaveChannel   = "leave_channel"
	CmdJoinThread     = "join_thread"
	CmdLeaveThread    = "leave_thread"
	CmdTyping         = "typing"
	CmdStopTyping     = "stop_typing"
	CmdSetStatus      = "set_status"
)

// Core 传输层依赖的实时核心（realtime.Core）
type Core interface {
	Connect(ctx context.Context, s room.Session) error
	Disconnect(ctx context.Context, s room.Session) error
	JoinWorkspace(ctx context.Context, s room.Session, workspaceRef any) error
	LeaveWorkspace(ctx context.Context, s room.Session, workspaceRef any)
	JoinChannel(ctx context.Context, s room.Session, channelRef any) error
	LeaveChannel(s room.Session, channelRef any)
	JoinThread(s room.Session, parentRef any) error
	LeaveThread(s room.Session, parentRef any)
	Typing(ctx context.Context, s room.Session, channelRef any) error
	StopTyping(ctx context.Context, s room.Session, channelRef any) error
	SetStatus(ctx context.Context, userRef any, status string, workspaceRef any) (model.UserStatus, error)
}

// Command 上行帧 {"event": "...", "data": ...}
// data 可以是裸 ID，也可以是带字段的对象
type Command struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ErrorPayload error 回执
type ErrorPayload struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

// Gateway WebSocket 接入
type Gateway struct {
	core       Core
	upgrader   websocket.Upgrader
	sendBuffer int
}

// NewGateway 创建接入层；allowedOrigins 为空时不校验 Origin
func NewGateway(core Core, sendBuffer int, allowedOrigins []string) *Gateway {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = struct{}{}
		}
	}
	return &Gateway{
		core:       core,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  2048,
			WriteBufferSize: 2048,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Serve 升级连接并启动读写协程，userID 必须来自已验证的 token
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeTransport, "websocket upgrade")
	}
	c := newClient(conn, userID, g.sendBuffer)
	if err := g.core.Connect(context.Background(), c); err != nil {
		c.close()
		return err
	}
	go c.writePump()
	go g.readPump(c)
	zap.L().Info("ws连接成功", zap.String("user", userID), zap.String("session", c.id))
	return nil
}

// readPump 读取上行命令直到连接断开，退出时执行下线流程
func (g *Gateway) readPump(c *Client) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("ws read panic", zap.Any("recover", r))
		}
		if err := g.core.Disconnect(context.Background(), c); err != nil {
			zap.L().Warn("下线流程失败", zap.String("user", c.userID), zap.Error(err))
		}
		c.close()
	}()

	c.conn.SetReadLimit(constants.WS_MAX_MESSAGE_SIZE)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("ws read", zap.String("session", c.id), zap.Error(err))
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.sendEvent(dispatch.EventError, ErrorPayload{Message: "无法解析的命令"})
			continue
		}
		if err := g.handle(context.Background(), c, cmd); err != nil {
			c.sendEvent(dispatch.EventError, ErrorPayload{Message: errorMessage(err), Event: cmd.Event})
		}
	}
}

func (g *Gateway) handle(ctx context.Context, c *Client, cmd Command) error {
	switch cmd.Event {
	case CmdJoinWorkspace:
		return g.core.JoinWorkspace(ctx, c, refFrom(cmd.Data, "workspace"))
	case CmdLeaveWorkspace:
		g.core.LeaveWorkspace(ctx, c, refFrom(cmd.Data, "workspace"))
	case CmdJoinChannel:
		return g.core.JoinChannel(ctx, c, refFrom(cmd.Data, "channel"))
	case CmdLeaveChannel:
		g.core.LeaveChannel(c, refFrom(cmd.Data, "channel"))
	case CmdJoinThread:
		return g.core.JoinThread(c, refFrom(cmd.Data, "thread"))
	case CmdLeaveThread:
		g.core.LeaveThread(c, refFrom(cmd.Data, "thread"))
	case CmdTyping:
		return g.core.Typing(ctx, c, refFrom(cmd.Data, "channel"))
	case CmdStopTyping:
		return g.core.StopTyping(ctx, c, refFrom(cmd.Data, "channel"))
	case CmdSetStatus:
		var req struct {
			Status    string `json:"status"`
			Workspace any    `json:"workspace"`
		}
		if err := json.Unmarshal(cmd.Data, &req); err != nil {
			return errorx.ErrInvalidParam
		}
		_, err := g.core.SetStatus(ctx, c.userID, req.Status, req.Workspace)
		return err
	default:
		return errorx.Newf(errorx.CodeInvalidParam, "未知命令 %q", cmd.Event)
	}
	return nil
}

// refFrom 取出命令里的引用：对象优先取指定字段，否则原样交给 identity 解析
func refFrom(data json.RawMessage, field string) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		if f, ok := m[field]; ok {
			return f
		}
		if f, ok := m[field+"Id"]; ok {
			return f
		}
	}
	return v
}

func errorMessage(err error) string {
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Msg
	}
	return errorx.ErrServerBusy.Msg
}
