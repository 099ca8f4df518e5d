package chat_platform_test

import (
	"context"
	"errors"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/slack-go/slack"

	"basegraph.app/slackbridge/internal/model"
	"basegraph.app/slackbridge/internal/service/chat_platform"
)

type repliesPage struct {
	messages   []slack.Message
	nextCursor string
}

type fakeSlackAPI struct {
	pages      map[string]repliesPage // keyed by cursor
	repliesErr error
	params     []slack.GetConversationRepliesParameters

	postErr     error
	postChannel string
	postValues  url.Values

	auth    *slack.AuthTestResponse
	authErr error
}

func (f *fakeSlackAPI) GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error) {
	f.params = append(f.params, *params)
	if f.repliesErr != nil {
		return nil, false, "", f.repliesErr
	}
	page := f.pages[params.Cursor]
	return page.messages, page.nextCursor != "", page.nextCursor, nil
}

func (f *fakeSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if f.postErr != nil {
		return "", "", f.postErr
	}
	_, values, err := slack.UnsafeApplyMsgOptions("xoxb-test", channelID, "https://slack.com/api/", options...)
	if err != nil {
		return "", "", err
	}
	f.postChannel = channelID
	f.postValues = values
	return channelID, "1700000009.000100", nil
}

func (f *fakeSlackAPI) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	return f.auth, f.authErr
}

func msg(user, botID, ts, text string) slack.Message {
	return slack.Message{Msg: slack.Msg{User: user, BotID: botID, Timestamp: ts, Text: text}}
}

var _ = Describe("SlackChatPlatform", func() {
	var (
		ctx      context.Context
		api      *fakeSlackAPI
		platform *chat_platform.SlackChatPlatform
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = &fakeSlackAPI{}
		platform = chat_platform.NewSlackChatPlatform(api)
	})

	Describe("FetchThreadReplies", func() {
		It("follows cursors and returns messages in timestamp order", func() {
			api.pages = map[string]repliesPage{
				"": {
					messages: []slack.Message{
						msg("U1", "", "1700000000.000100", "hi"),
						msg("", "B1", "1700000010.000100", "hello"),
					},
					nextCursor: "page2",
				},
				"page2": {
					messages: []slack.Message{
						msg("U1", "", "1700000005.000100", "late page, earlier ts"),
					},
				},
			}

			messages, err := platform.FetchThreadReplies(ctx, chat_platform.FetchThreadParams{
				Channel:  "C1",
				ThreadTS: "1700000000.000100",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(api.params).To(HaveLen(2))
			Expect(api.params[0].ChannelID).To(Equal("C1"))
			Expect(api.params[0].Timestamp).To(Equal("1700000000.000100"))
			Expect(api.params[1].Cursor).To(Equal("page2"))

			Expect(messages).To(Equal([]model.Message{
				{AuthorID: "U1", Timestamp: "1700000000.000100", Text: "hi"},
				{AuthorID: "U1", Timestamp: "1700000005.000100", Text: "late page, earlier ts"},
				{AuthorID: "B1", Timestamp: "1700000010.000100", Text: "hello", IsBot: true},
			}))
		})

		It("marks any message with a bot id as a bot message", func() {
			api.pages = map[string]repliesPage{
				"": {messages: []slack.Message{msg("UAPP", "B2", "1.0", "integration post")}},
			}

			messages, err := platform.FetchThreadReplies(ctx, chat_platform.FetchThreadParams{Channel: "C1", ThreadTS: "1.0"})

			Expect(err).NotTo(HaveOccurred())
			Expect(messages[0].AuthorID).To(Equal("UAPP"))
			Expect(messages[0].IsBot).To(BeTrue())
		})

		It("wraps API errors", func() {
			api.repliesErr = errors.New("thread_not_found")

			_, err := platform.FetchThreadReplies(ctx, chat_platform.FetchThreadParams{Channel: "C1", ThreadTS: "1.0"})

			Expect(err).To(MatchError(ContainSubstring("thread_not_found")))
		})
	})

	Describe("SendReply", func() {
		It("posts into the thread", func() {
			err := platform.SendReply(ctx, chat_platform.SendReplyParams{
				Channel:  "C1",
				ThreadTS: "1700000000.000100",
				Text:     "Hi there, <@U1>\n\nanswer",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(api.postChannel).To(Equal("C1"))
			Expect(api.postValues.Get("thread_ts")).To(Equal("1700000000.000100"))
			Expect(api.postValues.Get("text")).To(Equal("Hi there, <@U1>\n\nanswer"))
		})

		It("wraps API errors", func() {
			api.postErr = errors.New("channel_not_found")

			err := platform.SendReply(ctx, chat_platform.SendReplyParams{Channel: "C1", ThreadTS: "1.0", Text: "x"})

			Expect(err).To(MatchError(ContainSubstring("channel_not_found")))
		})
	})

	Describe("Identity", func() {
		It("returns the bot user and bot ids", func() {
			api.auth = &slack.AuthTestResponse{UserID: "UBOT", BotID: "BBOT"}

			identity, err := platform.Identity(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(identity).To(Equal(chat_platform.Identity{UserID: "UBOT", BotID: "BBOT"}))
		})

		It("fails on invalid tokens", func() {
			api.authErr = errors.New("invalid_auth")

			_, err := platform.Identity(ctx)

			Expect(err).To(MatchError(ContainSubstring("invalid_auth")))
		})
	})
})
