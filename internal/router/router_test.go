package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Olamide1/loopline/internal/handler"
	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/pkg/errorx"
	"github.com/Olamide1/loopline/pkg/util/jwt"
)

type stubNotifications struct {
	lastFilter model.NotificationFilter
	lastUser   any
}

func (s *stubNotifications) List(_ context.Context, user any, f model.NotificationFilter) ([]model.Notification, error) {
	s.lastUser, s.lastFilter = user, f
	return []model.Notification{{Uuid: "n1", User: "u1", Type: model.KindMention}}, nil
}

func (s *stubNotifications) UnreadCount(context.Context, any) (int64, error) { return 3, nil }

func (s *stubNotifications) MarkRead(_ context.Context, user any, id string) (*model.Notification, error) {
	if id != "n1" {
		return nil, errorx.ErrNotFound
	}
	return &model.Notification{Uuid: id, User: "u1", Read: true}, nil
}

func (s *stubNotifications) MarkAllRead(context.Context, any) (int64, error) { return 2, nil }

type stubPresence struct{}

func (stubPresence) SetStatus(_ context.Context, _ any, status string, _ any) (model.UserStatus, error) {
	st, ok := model.ParseUserStatus(status)
	if !ok {
		return "", errorx.ErrInvalidStatus
	}
	return st, nil
}

func (stubPresence) OnlineUsers(any) []string { return []string{"u1", "u2"} }

type stubUsers struct{}

func (stubUsers) FindByUuid(_ context.Context, uuid string) (*model.UserInfo, error) {
	if uuid != "u2" {
		return nil, errorx.ErrNotFound
	}
	return &model.UserInfo{Uuid: "u2", Status: model.StatusAway}, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []model.DomainEvent
}

func (p *stubPublisher) Publish(_ context.Context, ev model.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type stubSessions struct{ user string }

func (s *stubSessions) Serve(w http.ResponseWriter, _ *http.Request, userID string) error {
	s.user = userID
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

type response struct {
	Code int             `json:"code"`
	Msg  any             `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type fixture struct {
	engine   *gin.Engine
	notes    *stubNotifications
	events   *stubPublisher
	sessions *stubSessions
	token    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handler.InitTrans("zh"))
	jwt.Init("test-secret", 5)
	token, err := jwt.GenerateAccessToken("u1")
	require.NoError(t, err)

	f := &fixture{
		engine:   gin.New(),
		notes:    &stubNotifications{},
		events:   &stubPublisher{},
		sessions: &stubSessions{},
		token:    token,
	}
	handlers := handler.NewHandlers(f.notes, stubPresence{}, stubUsers{}, f.events, f.sessions)
	NewRouter(handlers).RegisterRoutes(f.engine)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp response
	if w.Code == http.StatusOK || w.Code == http.StatusUnauthorized {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	f.token = ""
	w, _ := f.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)
	f.token = "garbage"
	w, resp := f.do(t, http.MethodGet, "/api/v1/notification/list", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errorx.CodeUnauthorized, resp.Code)

	f.token = ""
	w, _ = f.do(t, http.MethodGet, "/api/v1/notification/unreadCount", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationRoutes(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodGet, "/api/v1/notification/list?limit=10&unreadOnly=true&type=mention", nil)
	require.Equal(t, errorx.CodeSuccess, resp.Code)
	assert.Equal(t, "u1", f.notes.lastUser)
	assert.Equal(t, model.NotificationFilter{UnreadOnly: true, Type: model.KindMention, Limit: 10}, f.notes.lastFilter)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, "n1", list[0]["_id"])

	_, resp = f.do(t, http.MethodGet, "/api/v1/notification/list?type=poke", nil)
	assert.Equal(t, errorx.CodeInvalidParam, resp.Code)

	_, resp = f.do(t, http.MethodGet, "/api/v1/notification/unreadCount", nil)
	assert.JSONEq(t, `{"count":3}`, string(resp.Data))

	_, resp = f.do(t, http.MethodPost, "/api/v1/notification/n1/read", nil)
	assert.Equal(t, errorx.CodeSuccess, resp.Code)

	_, resp = f.do(t, http.MethodPost, "/api/v1/notification/missing/read", nil)
	assert.Equal(t, errorx.CodeNotFound, resp.Code)

	_, resp = f.do(t, http.MethodPost, "/api/v1/notification/readAll", nil)
	assert.JSONEq(t, `{"updated":2}`, string(resp.Data))
}

func TestPresenceRoutes(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/api/v1/presence/status", map[string]any{"status": "away", "workspace": "w1"})
	assert.JSONEq(t, `{"userId":"u1","status":"away"}`, string(resp.Data))

	_, resp = f.do(t, http.MethodPost, "/api/v1/presence/status", map[string]any{"status": "busy"})
	assert.Equal(t, errorx.CodeInvalidStatus, resp.Code)
	assert.Contains(t, resp.Msg, "status", "validation message is keyed by the json field")

	_, resp = f.do(t, http.MethodGet, "/api/v1/presence/online?workspace=w1", nil)
	assert.JSONEq(t, `["u1","u2"]`, string(resp.Data))

	_, resp = f.do(t, http.MethodGet, "/api/v1/presence/online", nil)
	assert.Equal(t, errorx.CodeInvalidParam, resp.Code)

	_, resp = f.do(t, http.MethodGet, "/api/v1/presence/user/u2", nil)
	require.Equal(t, errorx.CodeSuccess, resp.Code)
	var user map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	assert.Equal(t, "away", user["status"])
}

func TestEventRoutes(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/api/v1/event/message", map[string]any{
		"message": map[string]any{"_id": "m1", "text": "hi"},
		"channel": map[string]any{"_id": "c1"},
	})
	require.Equal(t, errorx.CodeSuccess, resp.Code)
	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, model.EventMessagePosted, ev.Type)
	assert.Equal(t, "c1", ev.Key)
	var posted map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload, &posted))
	assert.Equal(t, "u1", posted["message"].(map[string]any)["user"], "actor defaults to the caller")

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/message", map[string]any{
		"message": map[string]any{"_id": "m2", "user": "someone-else"},
		"channel": map[string]any{"_id": "c1"},
	})
	assert.Equal(t, errorx.CodeForbidden, resp.Code)

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/reaction", map[string]any{
		"message": map[string]any{"_id": "m1", "user": "u2"},
		"channel": "c1",
		"added":   true,
	})
	assert.Equal(t, errorx.CodeSuccess, resp.Code)

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/read", map[string]any{"messageId": "m1", "channel": "c1", "reader": "u2"})
	assert.Equal(t, errorx.CodeForbidden, resp.Code)

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/read", map[string]any{"messageId": "m1", "channel": "c1", "reader": map[string]any{"name": "x"}})
	assert.Equal(t, errorx.CodeInvalidParam, resp.Code, "reader must resolve to an id")

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/dm", map[string]any{
		"conversation": map[string]any{"_id": "d1", "participants": []any{"u1", "u2"}},
		"message":      map[string]any{"_id": "dm1", "user": map[string]any{"_id": "u1"}},
	})
	assert.Equal(t, errorx.CodeSuccess, resp.Code)

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/read", map[string]any{"channel": "c1"})
	assert.Equal(t, errorx.CodeInvalidParam, resp.Code)

	types := make([]string, 0, len(f.events.events))
	for _, ev := range f.events.events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{model.EventMessagePosted, model.EventReactionToggled, model.EventDMSent}, types)
	assert.Equal(t, "d1", f.events.events[2].Key)
}

func TestChannelEventRoutes(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/api/v1/event/message/updated", map[string]any{
		"message": map[string]any{"_id": "m1", "channel": "c1", "text": "edited"},
	})
	require.Equal(t, errorx.CodeSuccess, resp.Code)
	assert.JSONEq(t, `{"type":"message_updated","key":"c1"}`, string(resp.Data))

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/message/updated", map[string]any{
		"message": map[string]any{"_id": "m1", "channel": "c1", "user": "u2"},
	})
	assert.Equal(t, errorx.CodeForbidden, resp.Code, "only the author edits")

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/channel/created", map[string]any{
		"channel": map[string]any{"_id": "c9", "name": "general"}, "workspace": "w1",
	})
	assert.JSONEq(t, `{"type":"channel_created","key":"c9"}`, string(resp.Data))

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/channel/updated", map[string]any{
		"channel": map[string]any{"_id": "c9", "name": "random"}, "workspace": "w1",
	})
	assert.JSONEq(t, `{"type":"channel_updated","key":"c9"}`, string(resp.Data))

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/channel/read", map[string]any{"channel": "c9", "workspace": "w1"})
	require.Equal(t, errorx.CodeSuccess, resp.Code)
	var read map[string]any
	require.NoError(t, json.Unmarshal(f.events.events[len(f.events.events)-1].Payload, &read))
	assert.Equal(t, "u1", read["reader"], "reader defaults to the caller")

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/channel/read", map[string]any{"channel": "c9", "workspace": "w1", "reader": "u2"})
	assert.Equal(t, errorx.CodeForbidden, resp.Code)

	_, resp = f.do(t, http.MethodPost, "/api/v1/event/channel/read", map[string]any{"channel": "c9"})
	assert.Equal(t, errorx.CodeInvalidParam, resp.Code)

	assert.Len(t, f.events.events, 4)
}

func TestWebSocketRouteUsesTokenIdentity(t *testing.T) {
	f := newFixture(t)
	token := f.token
	f.token = ""
	w, _ := f.do(t, http.MethodGet, "/wss?token="+token, nil)
	assert.Equal(t, http.StatusSwitchingProtocols, w.Code)
	assert.Equal(t, "u1", f.sessions.user)
}
