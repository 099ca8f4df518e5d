package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/slackbridge/internal/http/handler/webhook"
)

func WebhookRouter(router *gin.RouterGroup, slack *webhook.SlackWebhookHandler) {
	router.POST("/slack/events", slack.HandleEvent)
}
