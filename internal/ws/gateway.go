package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"classpulse/internal/auth"
	"classpulse/internal/config"
	"classpulse/internal/domain"
	"classpulse/internal/http/dto"
	"classpulse/internal/http/resp"
	"classpulse/internal/model"
	"classpulse/internal/repository"
	auditsvc "classpulse/internal/service/audit"
	"classpulse/internal/service/notify"
	"classpulse/internal/service/presence"
)

// Gateway accepts websocket connections, authenticates them once at
// handshake time, and relays events between clients and the services.
type Gateway struct {
	cfg      *config.Config
	hub      *Hub
	tracker  *presence.Tracker
	notify   *notify.Service
	recorder *auditsvc.Recorder
	classes  repository.ClassRepository
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewGateway(
	cfg *config.Config,
	hub *Hub,
	tracker *presence.Tracker,
	notifySvc *notify.Service,
	recorder *auditsvc.Recorder,
	classes repository.ClassRepository,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		cfg:      cfg,
		hub:      hub,
		tracker:  tracker,
		notify:   notifySvc,
		recorder: recorder,
		classes:  classes,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades GET /ws. The token is validated before the upgrade: a bad
// credential is refused with an explicit 401, it never becomes a half-open
// session.
func (g *Gateway) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	claims, err := auth.ParseToken(g.cfg.JWTSecret, token)
	if err != nil {
		g.log.Warn("ws handshake rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Code: resp.CodeUnauthorized, Message: "invalid or expired token"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Error("ws upgrade failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := newClient(conn, claims.UserID, claims.Name, claims.Role, g.cfg.WSSendBuffer)
	g.hub.Register(client)

	ctx := c.Request.Context()
	g.tracker.Connect(ctx, client.UserID)
	g.log.Info("ws connected",
		zap.String("connection_id", client.ID),
		zap.String("user_id", client.UserID),
	)

	go client.writePump(g.cfg.WSPingInterval, g.cfg.WSWriteTimeout, g.log)
	g.readLoop(ctx, client)
}

func (g *Gateway) readLoop(ctx context.Context, client *Client) {
	defer func() {
		g.hub.Unregister(client)
		// Disconnect bookkeeping must run even as the request context
		// unwinds.
		g.tracker.Disconnect(context.WithoutCancel(ctx), client.UserID)
		_ = client.conn.Close()
		g.log.Info("ws disconnected",
			zap.String("connection_id", client.ID),
			zap.String("user_id", client.UserID),
		)
	}()

	pongWait := 2 * g.cfg.WSPingInterval
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			return
		}
		g.dispatch(ctx, client, msg)
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *Client, msg clientMessage) {
	switch msg.Event {
	case domain.ClientEventJoinUser:
		g.handleJoinUser(client, msg.Data)
	case domain.ClientEventJoinClass:
		g.handleJoinClass(ctx, client, msg.Data)
	case domain.ClientEventJoinActivity:
		g.handleJoinActivity(ctx, client)
	case domain.ClientEventNewComment:
		g.handleNewComment(ctx, client, msg.Data)
	case domain.ClientEventSendNotification:
		g.handleSendNotification(ctx, client, msg.Data)
	case domain.ClientEventSetAway:
		g.tracker.SetAway(ctx, client.UserID)
	default:
		client.enqueue(errorEvent("unknown event: " + msg.Event))
	}
}

func (g *Gateway) handleJoinUser(client *Client, data json.RawMessage) {
	var p joinUserPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			client.enqueue(errorEvent("malformed join_user payload"))
			return
		}
	}
	// A connection only ever joins the room of the identity it
	// authenticated as.
	if p.UserID != "" && p.UserID != client.UserID {
		client.enqueue(errorEvent("cannot join another user's room"))
		return
	}
	g.hub.Join(client, domain.UserRoom(client.UserID))
}

func (g *Gateway) handleJoinClass(ctx context.Context, client *Client, data json.RawMessage) {
	var p joinClassPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ClassID == "" {
		client.enqueue(errorEvent("malformed join_class payload"))
		return
	}
	g.hub.Join(client, domain.ClassRoom(p.ClassID))

	// Reply with the current class state so a fresh join does not depend
	// on the next broadcast.
	announcements, err := g.classes.ListAnnouncements(ctx, p.ClassID, g.cfg.SnapshotLimit)
	if err != nil {
		g.log.Error("class announcements snapshot failed", zap.String("class_id", p.ClassID), zap.Error(err))
	} else {
		client.enqueue(Event{Name: domain.EventAnnouncementUpdate, Data: announcements})
	}
	comments, err := g.classes.ListComments(ctx, p.ClassID, g.cfg.SnapshotLimit)
	if err != nil {
		g.log.Error("class comments snapshot failed", zap.String("class_id", p.ClassID), zap.Error(err))
	} else {
		client.enqueue(Event{Name: domain.EventCommentUpdate, Data: comments})
	}
}

func (g *Gateway) handleJoinActivity(ctx context.Context, client *Client) {
	if !domain.CanSendNotifications(client.Role) {
		client.enqueue(errorEvent("forbidden"))
		return
	}
	g.hub.Join(client, domain.ActivityRoom)
	feed, err := g.recorder.Feed(ctx)
	if err != nil {
		g.log.Error("activity feed snapshot failed", zap.Error(err))
		return
	}
	client.enqueue(Event{Name: domain.EventActivityFeed, Data: feed})
}

func (g *Gateway) handleNewComment(ctx context.Context, client *Client, data json.RawMessage) {
	var p newCommentPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ClassID == "" || strings.TrimSpace(p.Text) == "" {
		client.enqueue(errorEvent("malformed new_comment payload"))
		return
	}
	created, err := g.classes.CreateComment(ctx, model.Comment{
		ClassID:    p.ClassID,
		UserID:     client.UserID,
		AuthorName: client.Name,
		Text:       strings.TrimSpace(p.Text),
	})
	if err != nil {
		g.log.Error("create comment failed", zap.String("class_id", p.ClassID), zap.Error(err))
		client.enqueue(errorEvent("failed to post comment"))
		return
	}
	g.recorder.Record(ctx, model.AuditEntry{
		UserID:       client.UserID,
		Action:       domain.ActionPostComment,
		ResourceType: "comment",
		ResourceID:   p.ClassID,
		Status:       domain.AuditStatusSuccess,
	})

	comments, err := g.classes.ListComments(ctx, p.ClassID, g.cfg.SnapshotLimit)
	if err != nil {
		// Degrade to broadcasting just the new comment.
		comments = []model.Comment{created}
	}
	g.hub.Broadcast(domain.ClassRoom(p.ClassID), domain.EventCommentUpdate, comments)
}

func (g *Gateway) handleSendNotification(ctx context.Context, client *Client, data json.RawMessage) {
	if !domain.CanSendNotifications(client.Role) {
		client.enqueue(errorEvent("forbidden"))
		return
	}
	var p sendNotificationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		client.enqueue(errorEvent("malformed send_notification payload"))
		return
	}
	title := p.Title
	if title == "" {
		title = "Notification"
	}
	_, err := g.notify.Create(ctx, client.UserID, model.Notification{
		UserID:    p.UserID,
		Title:     title,
		Message:   p.Text,
		Type:      p.Type,
		ActionURL: p.Link,
	})
	if err != nil {
		client.enqueue(errorEvent("failed to send notification: " + err.Error()))
	}
}
