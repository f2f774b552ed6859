package escalation

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-assistant/internal/common/logger"
)

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type mockSES struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

func TestSNSNotifier_Notify(t *testing.T) {
	var captured *sns.PublishInput
	client := &mockSNS{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}

	n := NewSNSNotifier(client, "+919999999999", logger.NewTestLogger(t))
	err := n.Notify(context.Background(), "user-42", "can you book me a flight")
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "+919999999999", *captured.PhoneNumber)
	assert.Contains(t, *captured.Message, "user-42")
	assert.Contains(t, *captured.Message, "can you book me a flight")
}

func TestSNSNotifier_TruncatesLongQuery(t *testing.T) {
	var captured *sns.PublishInput
	client := &mockSNS{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}

	long := strings.Repeat("x", 300)
	n := NewSNSNotifier(client, "+919999999999", logger.NewTestLogger(t))
	require.NoError(t, n.Notify(context.Background(), "user-42", long))

	assert.Contains(t, *captured.Message, strings.Repeat("x", 100)+"...")
	assert.NotContains(t, *captured.Message, strings.Repeat("x", 101))
}

func TestSNSNotifier_PublishError(t *testing.T) {
	client := &mockSNS{
		PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, assert.AnError
		},
	}

	n := NewSNSNotifier(client, "+919999999999", logger.NewTestLogger(t))
	err := n.Notify(context.Background(), "user-42", "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATION_SEND_FAILED")
}

func TestSESNotifier_Notify(t *testing.T) {
	var captured *ses.SendEmailInput
	client := &mockSES{
		SendEmailFunc: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{}, nil
		},
	}

	n := NewSESNotifier(client, "noreply@example.com", "support@example.com", logger.NewTestLogger(t))
	err := n.Notify(context.Background(), "user-42", "out of scope question")
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "noreply@example.com", *captured.Source)
	assert.Equal(t, []string{"support@example.com"}, captured.Destination.ToAddresses)
	assert.Contains(t, *captured.Message.Subject.Data, "user-42")
	assert.Contains(t, *captured.Message.Body.Text.Data, "out of scope question")
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.Notify(context.Background(), "user-42", "anything"))
}
