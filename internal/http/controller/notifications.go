package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classpulse/internal/config"
	"classpulse/internal/domain"
	"classpulse/internal/http/dto"
	"classpulse/internal/http/middleware"
	"classpulse/internal/http/resp"
	"classpulse/internal/model"
	"classpulse/internal/queue"
	auditsvc "classpulse/internal/service/audit"
	"classpulse/internal/service/notify"
)

// Handler serves the REST fallback: the same data the websocket events
// carry, for clients whose real-time channel is down.
type Handler struct {
	cfg      *config.Config
	svc      *notify.Service
	recorder *auditsvc.Recorder
	pub      queue.Publisher
	log      *zap.Logger
}

func NewHandler(cfg *config.Config, svc *notify.Service, recorder *auditsvc.Recorder, publisher queue.Publisher, logger *zap.Logger) *Handler {
	return &Handler{cfg: cfg, svc: svc, recorder: recorder, pub: publisher, log: logger}
}

func (h *Handler) ListNotifications(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	filter := model.NotificationFilter{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Limit:    20,
	}
	if v := c.Query("read"); v != "" {
		if read, err := strconv.ParseBool(v); err == nil {
			filter.Read = &read
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	notifications, err := h.svc.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.fail(c, err, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) NotificationStats(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	userID := c.GetString(middleware.ContextUserID)
	updated, err := h.svc.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		h.fail(c, err, "failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	count, err := h.svc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Code: "ok", Message: "marked read", Count: count})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	userID := c.GetString(middleware.ContextUserID)
	if err := h.svc.Delete(c.Request.Context(), id, userID); err != nil {
		h.fail(c, err, "failed to delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteRead(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	count, err := h.svc.DeleteAllRead(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "failed to delete read notifications")
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Code: "ok", Message: "deleted", Count: count})
}

// CreateNotification is the privileged send path. One endpoint covers the
// four fan-out shapes: single recipient, explicit id list, role set, class
// roster (optionally with a guardian wording).
func (h *Handler) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	actorID := c.GetString(middleware.ContextUserID)
	ctx := c.Request.Context()

	template := model.Notification{
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		Priority:    req.Priority,
		Category:    req.Category,
		ActionURL:   req.ActionURL,
		ActionLabel: req.ActionLabel,
		Metadata:    req.Metadata,
	}

	switch {
	case req.ClassID != "":
		var parentTemplate *model.Notification
		if req.ParentMessage != "" {
			pt := template
			pt.Message = req.ParentMessage
			if req.ParentTitle != "" {
				pt.Title = req.ParentTitle
			}
			parentTemplate = &pt
		}
		created, err := h.svc.CreateForClassRoster(ctx, actorID, req.ClassID, template, parentTemplate)
		if err != nil {
			h.fail(c, err, "failed to create class notifications")
			return
		}
		c.JSON(http.StatusCreated, created)
	case len(req.Roles) > 0:
		created, err := h.svc.CreateForRoles(ctx, actorID, req.Roles, template)
		if err != nil {
			h.fail(c, err, "failed to create role notifications")
			return
		}
		c.JSON(http.StatusCreated, created)
	case len(req.UserIDs) > 0:
		created, err := h.svc.CreateBatch(ctx, actorID, req.UserIDs, template)
		if err != nil {
			h.fail(c, err, "failed to create notifications")
			return
		}
		c.JSON(http.StatusCreated, created)
	default:
		template.UserID = req.UserID
		created, err := h.svc.Create(ctx, actorID, template)
		if err != nil {
			h.fail(c, err, "failed to create notification")
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// PublishEvent hands a domain event to the broker instead of acting on it
// inline; the consumer fans it out.
func (h *Handler) PublishEvent(c *gin.Context) {
	var req dto.PublishEventRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Event == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "event is required"})
		return
	}
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		h.log.Error("publish payload marshal failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to publish event"})
		return
	}

	prefix := h.cfg.RabbitPublishPrefix
	if prefix == "" {
		prefix = "school"
	}
	routingKey := prefix + "." + req.Event
	if err := h.pub.Publish(c.Request.Context(), payload, routingKey); err != nil {
		h.log.Error("publish event failed", zap.String("routing_key", routingKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to publish event"})
		return
	}
	c.JSON(http.StatusAccepted, dto.StatusResponse{Code: resp.CodeQueued, Message: "queued"})
}

func (h *Handler) ActivityFeed(c *gin.Context) {
	feed, err := h.recorder.Feed(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to load activity feed")
		return
	}
	if feed == nil {
		feed = []model.AuditEntry{}
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: "notification not found"})
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidNotificationType),
		errors.Is(err, domain.ErrInvalidPriority):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: err.Error()})
	default:
		h.log.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: message})
	}
}
