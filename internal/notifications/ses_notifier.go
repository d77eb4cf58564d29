package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	FromAddress     string
	FromName        string
}

// SESNotifier sends the plain-text confirmation through AWS SES using
// static credentials from config.
type SESNotifier struct {
	client      *ses.Client
	fromAddress string
	fromName    string
}

func NewSESNotifier(cfg SESConfig) *SESNotifier {
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		),
	}

	return &SESNotifier{
		client:      ses.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}
}

func (n *SESNotifier) SendRegistrationConfirmation(ctx context.Context, in SendRegistrationConfirmationInput) error {
	source := n.fromAddress
	if n.fromName != "" {
		source = fmt.Sprintf("%s <%s>", n.fromName, n.fromAddress)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{in.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(confirmationSubject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(confirmationBody(in.EventName)),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	_, err := n.client.SendEmail(ctx, input)

	if err != nil {
		return fmt.Errorf("send confirmation via ses: %w", err)
	}

	return nil
}
