package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tabhook/internal/config"
	"tabhook/internal/logger"
	"tabhook/internal/model"
	"tabhook/internal/relay"
	"tabhook/internal/tableau"
)

// BridgeHandler serves the inbound event endpoint and the Tableau webhook
// administration endpoints.
type BridgeHandler struct {
	tableau  *tableau.Client
	notifier *relay.Notifier
}

func NewBridgeHandler(client *tableau.Client, notifier *relay.Notifier) *BridgeHandler {
	return &BridgeHandler{
		tableau:  client,
		notifier: notifier,
	}
}

// NewRouter wires the full gin engine: middleware, collaborators, routes.
// Both the standalone server and the Lambda entrypoint serve this engine.
func NewRouter(cfg *config.Config) *gin.Engine {
	log := logger.GetLogger()
	client := tableau.NewClient(cfg.TableauServer, cfg.TableauUsername, cfg.TableauPassword, cfg.TableauSiteID, cfg.TableauVersion, log)
	notifier := relay.New(cfg.SlackWebhookURL, cfg.SlackChannel, cfg.SlackColor, log)

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogMiddleware())
	NewBridgeHandler(client, notifier).Register(r)
	return r
}

// Register attaches the bridge routes to the engine.
func (h *BridgeHandler) Register(r *gin.Engine) {
	r.POST("/webhook", h.HandleEvent)
	r.POST("/create_tableau_webhook", h.HandleCreateWebhook)
	r.GET("/list_tableau_webhooks", h.HandleListWebhooks)
	r.POST("/delete_tableau_webhook", h.HandleDeleteWebhook)
}

// HandleEvent relays an inbound Tableau event notification to Slack.
func (h *BridgeHandler) HandleEvent(c *gin.Context) {
	var notification model.EventNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		logger.GetLogger().Error("invalid event payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "failure", "error": "invalid request body"})
		return
	}

	if err := h.notifier.Relay(c.Request.Context(), notification); err != nil {
		logger.GetLogger().Error("failed to post event to slack", zap.Error(err))
		var relayErr *relay.RelayError
		if errors.As(err, &relayErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "failure", "error": relayErr.Body})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failure", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// CreateWebhookRequest is the body of POST /create_tableau_webhook.
type CreateWebhookRequest struct {
	Name           string `json:"name"`
	Event          string `json:"event"`
	DestinationURL string `json:"destination_url"`
}

// HandleCreateWebhook registers a new webhook subscription on the Tableau
// server.
func (h *BridgeHandler) HandleCreateWebhook(c *gin.Context) {
	var req CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Error("invalid create webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "failure", "error": "invalid request body"})
		return
	}

	id, err := h.tableau.CreateWebhook(c.Request.Context(), req.Name, req.Event, req.DestinationURL)
	if err != nil {
		h.writeTableauError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "id": id})
}

// HandleListWebhooks enumerates the webhook subscriptions on the Tableau
// server.
func (h *BridgeHandler) HandleListWebhooks(c *gin.Context) {
	webhooks, err := h.tableau.ListWebhooks(c.Request.Context())
	if err != nil {
		h.writeTableauError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "webhooks": webhooks})
}

// DeleteWebhookRequest is the body of POST /delete_tableau_webhook.
type DeleteWebhookRequest struct {
	WebhookID string `json:"webhook_id"`
}

// HandleDeleteWebhook removes a webhook subscription. A Tableau fault passes
// the remote status through to the caller.
func (h *BridgeHandler) HandleDeleteWebhook(c *gin.Context) {
	var req DeleteWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Error("invalid delete webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "failure", "error": "invalid request body"})
		return
	}

	if err := h.tableau.DeleteWebhook(c.Request.Context(), req.WebhookID); err != nil {
		h.writeTableauError(c, err, -1)
		return
	}

	c.JSON(http.StatusNoContent, gin.H{"status": "success"})
}

// writeTableauError maps an error from the Tableau client onto the HTTP
// response: validation failures become 400, API faults become faultStatus
// (or the remote status itself when faultStatus is negative), and anything
// else is an internal error.
func (h *BridgeHandler) writeTableauError(c *gin.Context, err error, faultStatus int) {
	logger.GetLogger().Error("tableau operation failed", zap.Error(err))

	var valErr *tableau.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failure", "error": valErr.Error()})
		return
	}

	var apiErr *tableau.APICallError
	if errors.As(err, &apiErr) {
		status := faultStatus
		if status < 0 {
			status = apiErr.StatusCode
		}
		c.JSON(status, gin.H{"status": "failure", "error": apiErr.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"status": "failure", "error": err.Error()})
}
