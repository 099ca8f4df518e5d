package dto

import "basegraph.app/slackbridge/internal/service"

type SlackEventStatus string

const (
	SlackEventEnqueued  SlackEventStatus = "enqueued"
	SlackEventDuplicate SlackEventStatus = "duplicate"
	SlackEventIgnored   SlackEventStatus = "ignored"
)

type SlackEventResponse struct {
	Status   SlackEventStatus `json:"status"`
	IngestID int64            `json:"ingest_id,omitempty,string"`
	Reason   string           `json:"reason,omitempty"`
}

func NewSlackEventResponse(result *service.EventIngestResult) SlackEventResponse {
	switch {
	case result.Ignored:
		return SlackEventResponse{Status: SlackEventIgnored, Reason: string(result.IgnoreReason)}
	case result.Duplicated:
		return SlackEventResponse{Status: SlackEventDuplicate}
	default:
		resp := SlackEventResponse{Status: SlackEventEnqueued}
		if result.Event != nil {
			resp.IngestID = result.Event.IngestID
		}
		return resp
	}
}
