package escalation

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	commonerrors "hospital-assistant/internal/common/errors"
	"hospital-assistant/internal/common/logger"
)

// maxQueryLen bounds the user query carried in a handoff message.
const maxQueryLen = 100

// Notifier hands a conversation off to a human agent. Best effort: the
// trigger logs failures and moves on.
type Notifier interface {
	Notify(ctx context.Context, userID, queryText string) error
}

// SNSAPI is the slice of the SNS client the notifier needs.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SESAPI is the slice of the SES client the notifier needs.
type SESAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSNotifier texts the on-call human agent.
type SNSNotifier struct {
	client      SNSAPI
	phoneNumber string
	log         logger.Logger
}

func NewSNSNotifier(client SNSAPI, phoneNumber string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{client: client, phoneNumber: phoneNumber, log: log}
}

func (n *SNSNotifier) Notify(ctx context.Context, userID, queryText string) error {
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(n.phoneNumber),
		Message:     aws.String(handoffMessage(userID, queryText)),
	})
	if err != nil {
		return commonerrors.NewNotificationSendFailedError(err)
	}
	n.log.Info("human agent notified via sms", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// SESNotifier emails the support inbox instead of texting.
type SESNotifier struct {
	client      SESAPI
	fromAddress string
	toAddress   string
	log         logger.Logger
}

func NewSESNotifier(client SESAPI, fromAddress, toAddress string, log logger.Logger) *SESNotifier {
	return &SESNotifier{client: client, fromAddress: fromAddress, toAddress: toAddress, log: log}
}

func (n *SESNotifier) Notify(ctx context.Context, userID, queryText string) error {
	body := handoffMessage(userID, queryText)
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.toAddress},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{
				Data: aws.String(fmt.Sprintf("Human assistance needed for user %s", userID)),
			},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return commonerrors.NewNotificationSendFailedError(err)
	}
	n.log.Info("human agent notified via email", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// NopNotifier is used when handoff transport is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }

func handoffMessage(userID, queryText string) string {
	return fmt.Sprintf(
		"User needs human assistance.\n\nUser: %s\nQuery: %s\n\nPlease follow up with this user.",
		userID, truncate(queryText, maxQueryLen),
	)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
