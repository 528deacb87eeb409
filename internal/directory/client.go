package directory

import (
	"context"

	slackgo "github.com/slack-go/slack"
)

// Client is the subset of the Slack Web API the directory needs.
// *slack.Client satisfies it; tests substitute a fake.
type Client interface {
	GetUserInfoContext(ctx context.Context, user string) (*slackgo.User, error)
	GetUsersContext(ctx context.Context, options ...slackgo.GetUsersOption) ([]slackgo.User, error)
	GetConversationInfoContext(ctx context.Context, input *slackgo.GetConversationInfoInput) (*slackgo.Channel, error)
	GetConversationsContext(ctx context.Context, params *slackgo.GetConversationsParameters) ([]slackgo.Channel, string, error)
}
