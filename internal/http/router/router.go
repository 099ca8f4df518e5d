package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/slackbridge/internal/http/handler/webhook"
	"basegraph.app/slackbridge/internal/service"
)

type RouterConfig struct {
	// Empty disables the Events API endpoint (Socket Mode only).
	SlackSigningSecret string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.SlackSigningSecret != "" {
		slackHandler := webhook.NewSlackWebhookHandler(cfg.SlackSigningSecret, services.EventIngest())
		WebhookRouter(router.Group("/webhooks"), slackHandler)
	}
}
