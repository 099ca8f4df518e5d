package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"basegraph.app/slackbridge/common/logger"
	"basegraph.app/slackbridge/internal/http/dto"
	"basegraph.app/slackbridge/internal/model"
	"basegraph.app/slackbridge/internal/service"
)

// Slack caps Events API payloads well below this.
const maxBodyBytes = 1 << 20

type SlackWebhookHandler struct {
	signingSecret string
	eventIngest   service.EventIngestService
}

func NewSlackWebhookHandler(signingSecret string, eventIngest service.EventIngestService) *SlackWebhookHandler {
	return &SlackWebhookHandler{
		signingSecret: signingSecret,
		eventIngest:   eventIngest,
	}
}

// HandleEvent serves the Events API request URL. It only verifies and
// enqueues; replies are produced by the worker.
func (h *SlackWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if err := h.verify(c.Request.Header, body); err != nil {
		slog.WarnContext(ctx, "rejected slack request", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	// Signature verification replaces the deprecated verification token.
	apiEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		slog.WarnContext(ctx, "invalid slack payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	switch apiEvent.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge"})
			return
		}
		c.String(http.StatusOK, challenge.Challenge)
		return
	case slackevents.CallbackEvent:
		h.handleCallback(c, apiEvent)
		return
	default:
		slog.DebugContext(ctx, "ignoring slack request", "type", apiEvent.Type)
		c.JSON(http.StatusOK, dto.SlackEventResponse{Status: dto.SlackEventIgnored})
	}
}

func (h *SlackWebhookHandler) handleCallback(c *gin.Context, apiEvent slackevents.EventsAPIEvent) {
	ctx := c.Request.Context()

	params, ok := service.MessageParamsFromEventsAPI(apiEvent)
	if !ok {
		slog.DebugContext(ctx, "ignoring non-message event", "inner_type", apiEvent.InnerEvent.Type)
		c.JSON(http.StatusOK, dto.SlackEventResponse{Status: dto.SlackEventIgnored})
		return
	}

	if traceID := logger.TraceID(ctx); traceID != "" {
		params.TraceID = &traceID
	}

	result, err := h.eventIngest.Ingest(ctx, params)
	if err != nil {
		if errors.Is(err, model.ErrMalformedEvent) {
			// 200 so Slack stops redelivering an event we will never accept.
			slog.WarnContext(ctx, "dropping malformed slack event", "error", err)
			c.JSON(http.StatusOK, dto.SlackEventResponse{Status: dto.SlackEventIgnored})
			return
		}
		slog.ErrorContext(ctx, "failed to ingest slack event", "error", err, "event_id", params.EventID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest event"})
		return
	}

	c.JSON(http.StatusOK, dto.NewSlackEventResponse(result))
}

func (h *SlackWebhookHandler) verify(header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}
