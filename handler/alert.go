package handler

import (
	"errors"
	"net/http"
	"slices"

	"github.com/civicpulse/mayoralert/middleware"
	"github.com/civicpulse/mayoralert/types"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	msgFetchFailed   = "Server error while fetching alerts"
	msgInvalidInput  = "Title and message are required"
	msgSent          = "Alert sent successfully to all users and admins"
	msgSendFailed    = "Server error while sending alert"
	msgNotFound      = "Alert not found"
	msgDeleted       = "Alert deleted successfully"
	msgDeleteFailed  = "Server error while deleting alert"
	msgNotAuthorized = "Not authorized, no token"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type listData struct {
	Alerts     []*types.Alert   `json:"alerts"`
	Pagination types.Pagination `json:"pagination"`
}

type alertData struct {
	Alert *types.Alert `json:"alert"`
}

// AlertHandler serves the alert resource.
type AlertHandler struct {
	store    types.AlertStore
	users    types.UserDirectory
	notifier types.Notifier
	logger   types.Logger
	opts     *options
}

func NewAlertHandler(store types.AlertStore, users types.UserDirectory, notifier types.Notifier, logger types.Logger, opts ...Option) *AlertHandler {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &AlertHandler{
		store:    store,
		users:    users,
		notifier: notifier,
		logger:   logger,
		opts:     o,
	}
}

// Register mounts the routes on rg. The handlers in guard run before each
// route.
func (h *AlertHandler) Register(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	rg.GET("", chain(guard, h.List)...)
	rg.POST("", chain(guard, h.Create)...)
	rg.DELETE("/:id", chain(guard, h.Delete)...)
}

func chain(guard []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(slices.Clip(guard), h)
}

// List returns one page of alerts, newest first. The page and the total
// count are fetched concurrently.
func (h *AlertHandler) List(c *gin.Context) {
	req := types.ParsePageRequest(c.Query("page"), c.Query("limit"))

	var (
		alerts []*types.Alert
		total  int64
	)

	g, ctx := errgroup.WithContext(c.Request.Context())

	g.Go(func() error {
		var err error
		alerts, err = h.store.FindAlerts(ctx, req.Skip(), req.Limit)
		return err
	})

	g.Go(func() error {
		var err error
		total, err = h.store.CountAlerts(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		h.logger.Errorf("Error fetching mayor alerts: %s", err)
		c.JSON(http.StatusInternalServerError, envelope{Message: msgFetchFailed, Error: err.Error()})
		return
	}

	if alerts == nil {
		alerts = []*types.Alert{}
	}

	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data: listData{
			Alerts:     alerts,
			Pagination: types.NewPagination(req, len(alerts), total),
		},
	})
}

// Create validates the body, stores the alert with the caller as sender and
// notifies citizens and admins. Notification is best-effort.
func (h *AlertHandler) Create(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, envelope{Message: msgNotAuthorized})
		return
	}

	var in types.CreateAlertInput

	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Message: msgInvalidInput})
		return
	}

	alert, err := types.NewAlert(in, id.UserID, h.opts.clock())
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope{Message: msgInvalidInput})
		return
	}

	ctx := c.Request.Context()

	if err := h.store.CreateAlert(ctx, alert); err != nil {
		h.logger.Errorf("Error sending mayor alert: %s", err)
		c.JSON(http.StatusInternalServerError, envelope{Message: msgSendFailed, Error: err.Error()})
		return
	}

	h.opts.metrics.AlertCreated()

	logger := h.logger.WithField("alertId", alert.ID)

	recipients, err := h.users.CountUsersByRole(ctx, types.AlertRecipientRoles...)
	if err != nil {
		logger.Errorf("Failed to count alert recipients: %s", err)
	} else if err := h.notifier.NotifyAlertCreated(ctx, alert, recipients); err != nil {
		logger.Errorf("Failed to notify alert recipients: %s", err)
	}

	c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: msgSent,
		Data:    alertData{Alert: alert},
	})
}

// Delete removes the alert named by the id path parameter.
func (h *AlertHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	_, err := h.store.FindAlertByID(ctx, id)
	if err == nil {
		err = h.store.DeleteAlert(ctx, id)
	}

	switch {
	case err == nil:
		h.opts.metrics.AlertDeleted()
		c.JSON(http.StatusOK, envelope{Success: true, Message: msgDeleted})
	case errors.Is(err, types.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, envelope{Message: msgNotFound})
	default:
		h.logger.Errorf("Error deleting mayor alert: %s", err)
		c.JSON(http.StatusInternalServerError, envelope{Message: msgDeleteFailed, Error: err.Error()})
	}
}
