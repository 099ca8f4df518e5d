package service

import (
	"github.com/slack-go/slack/slackevents"
)

// MessageParamsFromEventsAPI extracts a message event from an Events API
// callback. ok is false for any other event type.
func MessageParamsFromEventsAPI(evt slackevents.EventsAPIEvent) (params EventIngestParams, ok bool) {
	if evt.Type != slackevents.CallbackEvent {
		return EventIngestParams{}, false
	}

	msg, isMessage := evt.InnerEvent.Data.(*slackevents.MessageEvent)
	if !isMessage || msg == nil {
		return EventIngestParams{}, false
	}

	params = EventIngestParams{
		Channel:  msg.Channel,
		User:     msg.User,
		BotID:    msg.BotID,
		SubType:  msg.SubType,
		TS:       msg.TimeStamp,
		Text:     msg.Text,
		ThreadTS: msg.ThreadTimeStamp,
	}
	if cb, isCallback := evt.Data.(*slackevents.EventsAPICallbackEvent); isCallback && cb != nil {
		params.EventID = cb.EventID
	}
	return params, true
}
